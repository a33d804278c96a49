package service

import (
	"context"
	"errors"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// Classify maps an error onto the error class reported in a Result.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, port.ErrMissingField), errors.Is(err, port.ErrUnknownEvent):
		return domain.ErrorClassMissingField
	case errors.Is(err, port.ErrInitiatorNotFound),
		errors.Is(err, port.ErrObjectNotFound),
		errors.Is(err, port.ErrTaskNotFound),
		errors.Is(err, port.ErrTrailNotFound):
		return domain.ErrorClassNotFound
	case errors.Is(err, port.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		return domain.ErrorClassTransient
	default:
		return domain.ErrorClassInternal
	}
}

// stepError tags an error with the handler step it came from.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

func atStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return &stepError{step: step, err: err}
}

// stepOf returns the step an error was tagged with, or fallback.
func stepOf(err error, fallback string) string {
	var se *stepError
	if errors.As(err, &se) {
		return se.step
	}
	return fallback
}
