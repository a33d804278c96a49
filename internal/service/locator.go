package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// deadlineMargin is left for the work that follows a locate call when the
// invocation carries a deadline.
const deadlineMargin = 20 * time.Second

// LocatorConfig tunes the audit log poll.
type LocatorConfig struct {
	Timeout  time.Duration // default wait when the caller passes 0
	Interval time.Duration // pause between scans
	MaxPages int           // pages read per scan, 0 = until exhausted
}

// Locator finds the session-start audit event for a session id. The audit
// log has no subscription primitive and events become queryable after an
// unbounded delay, so it rescans the current event window on a fixed interval.
type Locator struct {
	source port.AuditEventSource
	clock  Clock
	cfg    LocatorConfig
}

// NewLocator creates a locator reading from source.
func NewLocator(source port.AuditEventSource, cfg LocatorConfig) *Locator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	return &Locator{source: source, clock: SystemClock{}, cfg: cfg}
}

// WithClock replaces the clock, for simulated time in tests.
func (l *Locator) WithClock(c Clock) *Locator {
	l.clock = c
	return l
}

// Locate returns the event that started sessionID, waiting up to timeout
// (the configured default when timeout is 0). It fails with
// port.ErrInitiatorNotFound once the timeout has elapsed without a match.
func (l *Locator) Locate(ctx context.Context, sessionID string, timeout time.Duration) (domain.AuditEvent, error) {
	if sessionID == "" {
		return domain.AuditEvent{}, fmt.Errorf("%w: session id", port.ErrMissingField)
	}
	if timeout <= 0 {
		timeout = l.cfg.Timeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if remaining := time.Until(dl) - deadlineMargin; remaining < timeout {
			timeout = max(remaining, 0)
			slog.Debug("locator timeout clamped to invocation deadline", "session_id", sessionID, "timeout", timeout)
		}
	}

	ev, err := Poll(ctx, l.clock, l.cfg.Interval, timeout, func(ctx context.Context) (domain.AuditEvent, bool, error) {
		return l.scan(ctx, sessionID)
	})
	if errors.Is(err, ErrPollTimeout) {
		return domain.AuditEvent{}, fmt.Errorf("%w: session %s: %v", port.ErrInitiatorNotFound, sessionID, err)
	}
	if err != nil {
		return domain.AuditEvent{}, fmt.Errorf("locate session %s: %w", sessionID, err)
	}
	return ev, nil
}

// scan walks the current event window page by page and stops at the first match.
func (l *Locator) scan(ctx context.Context, sessionID string) (domain.AuditEvent, bool, error) {
	token := ""
	for page := 1; l.cfg.MaxPages <= 0 || page <= l.cfg.MaxPages; page++ {
		events, next, err := l.source.SessionStarts(ctx, token)
		if err != nil {
			return domain.AuditEvent{}, false, fmt.Errorf("read audit page %d: %w", page, err)
		}
		for _, ev := range events {
			if ev.SessionID == sessionID && ev.Initiator != "" {
				slog.Info("session initiator located", "session_id", sessionID, "initiator", ev.Initiator, "page", page)
				return ev, true, nil
			}
		}
		if next == "" {
			break
		}
		token = next
	}
	return domain.AuditEvent{}, false, nil
}
