package domain

import "time"

// SessionStartEventName is the CloudTrail event recorded when an ECS exec session starts.
const SessionStartEventName = "ExecuteCommand"

// AuditEvent is one record from the platform audit log, reduced to the
// fields needed to tie a session back to whoever started it.
type AuditEvent struct {
	EventID   string    `json:"event_id"`
	EventName string    `json:"event_name"`
	EventTime time.Time `json:"event_time"`
	SessionID string    `json:"session_id"`
	Initiator string    `json:"initiator"`
	TaskArn   string    `json:"task_arn"`
	Cluster   string    `json:"cluster"`
}

// InvocationLog records the outcome of one handler invocation.
type InvocationLog struct {
	ID         string    `json:"id"          db:"id"`
	Trigger    string    `json:"trigger"     db:"trigger"`
	SessionID  string    `json:"session_id"  db:"session_id"`
	Code       int       `json:"code"        db:"code"`
	Step       string    `json:"step"        db:"step"`
	ErrorClass string    `json:"error_class" db:"error_class"`
	Message    string    `json:"message"     db:"message"`
	DurationMS int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// Trigger names.
const (
	TriggerSessionStarted = "session_started"
	TriggerLogDelivered   = "log_delivered"
)
