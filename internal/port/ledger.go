package port

import (
	"context"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

// InvocationRecorder persists handler outcomes.
type InvocationRecorder interface {
	RecordInvocation(ctx context.Context, entry domain.InvocationLog) error
}

// InvocationReader lists recorded outcomes, newest first.
type InvocationReader interface {
	ListInvocations(ctx context.Context, limit int, sessionID string) ([]domain.InvocationLog, error)
}
