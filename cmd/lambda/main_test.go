package main

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/service"
)

func TestEnvelope(t *testing.T) {
	e := events.CloudWatchEvent{
		ID:         "evt-1",
		DetailType: "Object Created",
		Source:     "aws.s3",
		Region:     "eu-west-1",
		Time:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Detail:     json.RawMessage(`{"object":{"key":"sess-1.log"}}`),
	}

	env := envelope(e)
	assert.Equal(t, "evt-1", env.ID)
	assert.Equal(t, "Object Created", env.DetailType)
	assert.Equal(t, "2024-05-01T12:00:00Z", env.Time)
	assert.JSONEq(t, `{"object":{"key":"sess-1.log"}}`, string(env.Detail))

	assert.Empty(t, envelope(events.CloudWatchEvent{}).Time)
}

type downRegistry struct{}

func (downRegistry) EnsureTrail(context.Context, string, domain.TrailTemplate) error {
	return fmt.Errorf("%w: registry unavailable", port.ErrTransient)
}

const sessionStart = `{
  "eventName": "ExecuteCommand",
  "userIdentity": {"arn": "arn:aws:sts::123456789012:assumed-role/Admin/alice"},
  "requestParameters": {"cluster": "prod"},
  "responseElements": {"taskArn": "arn:aws:ecs:eu-west-1:123456789012:task/prod/0a1b2c", "session": {"sessionId": "sess-1"}}
}`

func TestHandlerErrorsOnlyOnTransientFailure(t *testing.T) {
	svc := service.NewSessionService(service.Dependencies{Registry: downRegistry{}}, service.Options{
		TrailKey:   "session",
		ScratchDir: t.TempDir(),
	})
	h := handler(svc)

	res, err := h(context.Background(), events.CloudWatchEvent{
		DetailType: domain.DetailTypeCloudTrailCall,
		Detail:     json.RawMessage(sessionStart),
	})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorClassTransient, res.ErrorClass)
	assert.Equal(t, service.StepEnsureTrail, res.Step)

	res, err = h(context.Background(), events.CloudWatchEvent{DetailType: "Something Else"})
	require.NoError(t, err)
	assert.Equal(t, 500, res.Code)
	assert.Equal(t, domain.ErrorClassMissingField, res.ErrorClass)
}
