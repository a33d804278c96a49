package platform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	cttypes "github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

type fakeCloudTrail struct {
	pages  map[string]*cloudtrail.LookupEventsOutput
	inputs []*cloudtrail.LookupEventsInput
	err    error
}

func (f *fakeCloudTrail) LookupEvents(_ context.Context, in *cloudtrail.LookupEventsInput, _ ...func(*cloudtrail.Options)) (*cloudtrail.LookupEventsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[aws.ToString(in.NextToken)], nil
}

func trailRecord(id, session, arn string) cttypes.Event {
	record := fmt.Sprintf(`{"eventName":"ExecuteCommand","userIdentity":{"arn":%q},
		"requestParameters":{"cluster":"prod"},
		"responseElements":{"taskArn":"arn:aws:ecs:task/prod/1","session":{"sessionId":%q}}}`, arn, session)
	return cttypes.Event{
		EventId:         aws.String(id),
		EventName:       aws.String("ExecuteCommand"),
		EventTime:       aws.Time(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		CloudTrailEvent: aws.String(record),
	}
}

func TestAuditSourcePages(t *testing.T) {
	api := &fakeCloudTrail{pages: map[string]*cloudtrail.LookupEventsOutput{
		"": {
			Events:    []cttypes.Event{trailRecord("e1", "sess-1", "arn:a"), {EventId: aws.String("broken"), CloudTrailEvent: aws.String("{")}},
			NextToken: aws.String("page-2"),
		},
		"page-2": {Events: []cttypes.Event{trailRecord("e2", "sess-2", "arn:b")}},
	}}
	src := NewAuditSource(api, 30*time.Minute)
	now := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return now }

	events, next, err := src.SessionStarts(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "page-2", next)
	require.Len(t, events, 1)
	assert.Equal(t, "sess-1", events[0].SessionID)
	assert.Equal(t, "arn:a", events[0].Initiator)
	assert.Equal(t, "prod", events[0].Cluster)

	events, next, err = src.SessionStarts(context.Background(), next)
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, events, 1)
	assert.Equal(t, "sess-2", events[0].SessionID)

	first := api.inputs[0]
	assert.Equal(t, cttypes.LookupAttributeKeyEventName, first.LookupAttributes[0].AttributeKey)
	assert.Equal(t, "ExecuteCommand", aws.ToString(first.LookupAttributes[0].AttributeValue))
	assert.Equal(t, now.Add(-30*time.Minute), aws.ToTime(first.StartTime))
	assert.Nil(t, first.NextToken)
}

func TestAuditSourceThrottled(t *testing.T) {
	api := &fakeCloudTrail{err: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}}
	_, _, err := NewAuditSource(api, 0).SessionStarts(context.Background(), "")
	assert.ErrorIs(t, err, port.ErrTransient)
}

type fakeECS struct {
	out *ecs.DescribeTasksOutput
	err error
}

func (f fakeECS) DescribeTasks(context.Context, *ecs.DescribeTasksInput, ...func(*ecs.Options)) (*ecs.DescribeTasksOutput, error) {
	return f.out, f.err
}

func TestTaskGroup(t *testing.T) {
	d := NewTaskDescriber(fakeECS{out: &ecs.DescribeTasksOutput{
		Tasks: []ecstypes.Task{{Group: aws.String("service:payments-api")}},
	}})
	group, err := d.TaskGroup(context.Background(), "prod", "arn:task")
	require.NoError(t, err)
	assert.Equal(t, "service:payments-api", group)
}

func TestTaskGroupMissing(t *testing.T) {
	d := NewTaskDescriber(fakeECS{out: &ecs.DescribeTasksOutput{
		Failures: []ecstypes.Failure{{Reason: aws.String("MISSING")}},
	}})
	_, err := d.TaskGroup(context.Background(), "prod", "arn:task")
	require.ErrorIs(t, err, port.ErrTaskNotFound)
	assert.Contains(t, err.Error(), "MISSING")

	d = NewTaskDescriber(fakeECS{err: &smithy.GenericAPIError{Code: "ClusterNotFoundException"}})
	_, err = d.TaskGroup(context.Background(), "gone", "arn:task")
	assert.ErrorIs(t, err, port.ErrTaskNotFound)
}

type fakeS3 struct {
	objects map[string][]byte
	err     error
}

func (f fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestFetch(t *testing.T) {
	dir := t.TempDir()
	f := NewObjectFetcher(fakeS3{objects: map[string][]byte{"sessions/abc.log": []byte("$ ls\n")}})

	p, err := f.Fetch(context.Background(), "logs", "sessions/abc.log", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "abc.log"), p)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "$ ls\n", string(data))
}

func TestFetchMissingObject(t *testing.T) {
	dir := t.TempDir()
	f := NewObjectFetcher(fakeS3{objects: map[string][]byte{}})

	_, err := f.Fetch(context.Background(), "logs", "sessions/abc.log", dir)
	require.ErrorIs(t, err, port.ErrObjectNotFound)
	assert.NoFileExists(t, filepath.Join(dir, "abc.log"))
}

func TestMapAPIError(t *testing.T) {
	notFound := errors.New("gone")
	assert.NoError(t, mapAPIError(nil, notFound))
	assert.ErrorIs(t, mapAPIError(errors.New("dial tcp: timeout"), notFound), port.ErrTransient)
	assert.ErrorIs(t, mapAPIError(&smithy.GenericAPIError{Code: "NotFound"}, notFound, "NotFound"), notFound)
	assert.ErrorIs(t, mapAPIError(&smithy.GenericAPIError{Code: "SlowDown"}, notFound), port.ErrTransient)
	assert.ErrorIs(t, mapAPIError(&smithy.GenericAPIError{Code: "Boom", Fault: smithy.FaultServer}, notFound), port.ErrTransient)
	assert.ErrorIs(t, mapAPIError(context.Canceled, notFound), context.Canceled)

	denied := mapAPIError(&smithy.GenericAPIError{Code: "AccessDenied"}, notFound)
	assert.NotErrorIs(t, denied, port.ErrTransient)
	assert.NotErrorIs(t, denied, notFound)
}

func TestCredentialsOptions(t *testing.T) {
	assert.Empty(t, Credentials{}.optFns())
	assert.Len(t, Credentials{Region: "eu-west-1"}.optFns(), 1)
	assert.Len(t, Credentials{Region: "eu-west-1", AccessKeyID: "AK", SecretAccessKey: "SK"}.optFns(), 2)
	assert.Empty(t, Credentials{AccessKeyID: "AK"}.optFns())
}
