package port

import (
	"context"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

// AuditEventSource abstracts the lagging, paginated platform audit log.
// Implementations return session-start events only; callers filter by session id.
type AuditEventSource interface {
	// SessionStarts returns one page of session-start events, newest first.
	// An empty next token means the current event window is exhausted.
	SessionStarts(ctx context.Context, pageToken string) (events []domain.AuditEvent, next string, err error)
}
