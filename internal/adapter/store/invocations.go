package store

import (
	"context"
	"fmt"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

const invocationsSchema = `
CREATE TABLE IF NOT EXISTS invocations (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	trigger     TEXT NOT NULL,
	session_id  TEXT NOT NULL DEFAULT '',
	code        INTEGER NOT NULL,
	step        TEXT NOT NULL DEFAULT '',
	error_class TEXT NOT NULL DEFAULT '',
	message     TEXT NOT NULL DEFAULT '',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS invocations_session_idx ON invocations (session_id, created_at DESC);`

// EnsureSchema creates the invocations table when it is missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, invocationsSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// RecordInvocation implements port.InvocationRecorder.
func (s *PostgresStore) RecordInvocation(ctx context.Context, l domain.InvocationLog) error {
	query := `INSERT INTO invocations (trigger, session_id, code, step, error_class, message, duration_ms)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		l.Trigger, l.SessionID, l.Code, l.Step, l.ErrorClass, l.Message, l.DurationMS,
	)
	if err != nil {
		return fmt.Errorf("record invocation: %w", err)
	}
	return nil
}

// ListInvocations implements port.InvocationReader, newest first.
func (s *PostgresStore) ListInvocations(ctx context.Context, limit int, sessionID string) ([]domain.InvocationLog, error) {
	query, args := listInvocationsQuery(limit, sessionID)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var logs []domain.InvocationLog
	for rows.Next() {
		var l domain.InvocationLog
		if err := rows.Scan(
			&l.ID, &l.Trigger, &l.SessionID, &l.Code, &l.Step,
			&l.ErrorClass, &l.Message, &l.DurationMS, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func listInvocationsQuery(limit int, sessionID string) (string, []any) {
	query := `SELECT id, trigger, session_id, code, step, error_class, message, duration_ms, created_at
	          FROM invocations`
	args := []any{}
	argIdx := 1

	if sessionID != "" {
		query += fmt.Sprintf(" WHERE session_id = $%d", argIdx)
		args = append(args, sessionID)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}
	return query, args
}
