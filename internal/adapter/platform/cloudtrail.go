package platform

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail"
	"github.com/aws/aws-sdk-go-v2/service/cloudtrail/types"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// CloudTrailAPI is the part of the CloudTrail client the audit source uses.
type CloudTrailAPI interface {
	LookupEvents(ctx context.Context, in *cloudtrail.LookupEventsInput, optFns ...func(*cloudtrail.Options)) (*cloudtrail.LookupEventsOutput, error)
}

// AuditSource implements port.AuditEventSource over CloudTrail management
// events, filtered to session starts.
type AuditSource struct {
	api      CloudTrailAPI
	lookback time.Duration
	pageSize int32
	now      func() time.Time
}

// NewAuditSource creates a CloudTrail-backed audit source. Only events newer
// than lookback are read.
func NewAuditSource(api CloudTrailAPI, lookback time.Duration) *AuditSource {
	if lookback <= 0 {
		lookback = time.Hour
	}
	return &AuditSource{api: api, lookback: lookback, pageSize: 50, now: time.Now}
}

// NewAuditSourceFromConfig builds the source from an AWS config.
func NewAuditSourceFromConfig(cfg aws.Config, lookback time.Duration) *AuditSource {
	return NewAuditSource(cloudtrail.NewFromConfig(cfg), lookback)
}

// SessionStarts returns one page of session-start events, newest first.
func (s *AuditSource) SessionStarts(ctx context.Context, pageToken string) ([]domain.AuditEvent, string, error) {
	in := &cloudtrail.LookupEventsInput{
		LookupAttributes: []types.LookupAttribute{{
			AttributeKey:   types.LookupAttributeKeyEventName,
			AttributeValue: aws.String(domain.SessionStartEventName),
		}},
		StartTime:  aws.Time(s.now().Add(-s.lookback)),
		MaxResults: aws.Int32(s.pageSize),
	}
	if pageToken != "" {
		in.NextToken = aws.String(pageToken)
	}

	out, err := s.api.LookupEvents(ctx, in)
	if err != nil {
		return nil, "", mapAPIError(err, port.ErrTransient)
	}

	events := make([]domain.AuditEvent, 0, len(out.Events))
	for _, e := range out.Events {
		ev, ok := auditEvent(e)
		if !ok {
			continue
		}
		events = append(events, ev)
	}
	return events, aws.ToString(out.NextToken), nil
}

func auditEvent(e types.Event) (domain.AuditEvent, bool) {
	ev := domain.AuditEvent{
		EventID:   aws.ToString(e.EventId),
		EventName: aws.ToString(e.EventName),
		EventTime: aws.ToTime(e.EventTime),
	}
	if e.CloudTrailEvent == nil {
		return ev, false
	}
	var record domain.SessionStartDetail
	if err := json.Unmarshal([]byte(*e.CloudTrailEvent), &record); err != nil {
		slog.Warn("skipping unreadable audit record", "event_id", ev.EventID, "error", err)
		return ev, false
	}
	ev.SessionID = record.ResponseElements.Session.SessionID
	ev.Initiator = record.UserIdentity.Arn
	ev.TaskArn = record.ResponseElements.TaskArn
	ev.Cluster = record.RequestParameters.Cluster
	return ev, ev.SessionID != ""
}
