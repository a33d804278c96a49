package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

// MemoryLedger keeps the most recent invocations in process. It is used
// when no database is configured.
type MemoryLedger struct {
	mu      sync.Mutex
	max     int
	entries []domain.InvocationLog
	now     func() time.Time
}

// NewMemoryLedger creates a ledger holding up to capacity entries.
func NewMemoryLedger(capacity int) *MemoryLedger {
	if capacity <= 0 {
		capacity = 500
	}
	return &MemoryLedger{max: capacity, now: time.Now}
}

// RecordInvocation implements port.InvocationRecorder.
func (m *MemoryLedger) RecordInvocation(_ context.Context, l domain.InvocationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = m.now()
	}
	m.entries = append(m.entries, l)
	if over := len(m.entries) - m.max; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	return nil
}

// ListInvocations implements port.InvocationReader, newest first.
func (m *MemoryLedger) ListInvocations(_ context.Context, limit int, sessionID string) ([]domain.InvocationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.InvocationLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		l := m.entries[i]
		if sessionID != "" && l.SessionID != sessionID {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
