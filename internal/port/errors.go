package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrMissingField      = errors.New("missing required field")
	ErrUnknownEvent      = errors.New("unsupported event")
	ErrInitiatorNotFound = errors.New("session initiator not found")
	ErrObjectNotFound    = errors.New("object not found")
	ErrTransient         = errors.New("transient failure")
	ErrTrailExists       = errors.New("trail already exists")
	ErrTrailNotFound     = errors.New("trail not found")
	ErrTaskNotFound      = errors.New("task not found")
)
