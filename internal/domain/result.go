package domain

import "net/http"

// Error classes reported in a Result.
const (
	ErrorClassMissingField = "missing_field"
	ErrorClassNotFound     = "not_found"
	ErrorClassTransient    = "transient"
	ErrorClassInternal     = "internal"
)

// Result is the status object every handler returns to its trigger.
type Result struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	SessionID  string `json:"session_id,omitempty"`
	Step       string `json:"step,omitempty"`
	ErrorClass string `json:"error_class,omitempty"`
}

// OK reports whether the invocation succeeded.
func (r Result) OK() bool {
	return r.Code == http.StatusOK
}

// Success builds a 200 result.
func Success(sessionID, message string) Result {
	return Result{Code: http.StatusOK, Message: message, SessionID: sessionID}
}

// Failure builds a 500 result naming the step that failed.
func Failure(sessionID, step, errorClass, message string) Result {
	return Result{
		Code:       http.StatusInternalServerError,
		Message:    message,
		SessionID:  sessionID,
		Step:       step,
		ErrorClass: errorClass,
	}
}
