package service

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// ParseSessionStart extracts the session, its initiator and its target task
// from a session-start event detail. Every field is required.
func ParseSessionStart(detail json.RawMessage) (domain.Session, error) {
	var d domain.SessionStartDetail
	if err := json.Unmarshal(detail, &d); err != nil {
		return domain.Session{}, fmt.Errorf("%w: decode session-start detail: %v", port.ErrMissingField, err)
	}
	if d.EventName != "" && d.EventName != domain.SessionStartEventName {
		return domain.Session{}, fmt.Errorf("%w: event name %q", port.ErrUnknownEvent, d.EventName)
	}

	sess := domain.Session{
		ID:        d.ResponseElements.Session.SessionID,
		Initiator: d.UserIdentity.Arn,
		TaskArn:   d.ResponseElements.TaskArn,
		Cluster:   d.RequestParameters.Cluster,
	}
	if sess.TaskArn == "" {
		sess.TaskArn = d.RequestParameters.Task
	}

	required := []struct {
		field, value string
	}{
		{"detail.responseElements.session.sessionId", sess.ID},
		{"detail.userIdentity.arn", sess.Initiator},
		{"detail.responseElements.taskArn", sess.TaskArn},
		{"detail.requestParameters.cluster", sess.Cluster},
	}
	for _, r := range required {
		if r.value == "" {
			return sess, fmt.Errorf("%w: %s", port.ErrMissingField, r.field)
		}
	}
	return sess, nil
}

// ParseLogDelivered extracts the bucket, object key and session id from a
// log-delivered event detail. defaultBucket is used when the detail names none.
func ParseLogDelivered(detail json.RawMessage, defaultBucket, suffix string) (bucket, key, sessionID string, err error) {
	var d domain.LogDeliveredDetail
	if err := json.Unmarshal(detail, &d); err != nil {
		return "", "", "", fmt.Errorf("%w: decode log-delivered detail: %v", port.ErrMissingField, err)
	}
	key = d.Object.Key
	if key == "" {
		return "", "", "", fmt.Errorf("%w: detail.object.key", port.ErrMissingField)
	}
	bucket = d.Bucket.Name
	if bucket == "" {
		bucket = defaultBucket
	}
	if bucket == "" {
		return "", key, "", fmt.Errorf("%w: detail.bucket.name (and no default bucket configured)", port.ErrMissingField)
	}
	sessionID, err = SessionIDFromKey(key, suffix)
	return bucket, key, sessionID, err
}

// SessionIDFromKey derives the session id from the final path segment of an
// object key, dropping the log file suffix and anything after it.
func SessionIDFromKey(key, suffix string) (string, error) {
	base := path.Base(strings.TrimRight(key, "/"))
	id := base
	if suffix != "" {
		id, _, _ = strings.Cut(base, suffix)
	}
	if id == "" || id == "." || id == "/" {
		return "", fmt.Errorf("%w: session id in object key %q", port.ErrMissingField, key)
	}
	return id, nil
}
