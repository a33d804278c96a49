package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
	"github.com/arturoeanton/go-ecs-exec-evidence/internal/port"
)

// IdentityReporter turns a small identity document into a file-backed
// attestation. Two are wired: one for the initiator, one for the target service.
type IdentityReporter struct {
	attester     port.Attester
	evidenceName string
	fileName     string
}

// NewIdentityReporter creates a reporter attaching evidence named evidenceName.
func NewIdentityReporter(attester port.Attester, evidenceName string) *IdentityReporter {
	return &IdentityReporter{
		attester:     attester,
		evidenceName: evidenceName,
		fileName:     evidenceName + ".json",
	}
}

// Report writes doc into scratch and attaches it to trail. The document is
// also sent as structured metadata, together with the session id.
func (r *IdentityReporter) Report(ctx context.Context, scratch *Scratch, trail, sessionID string, doc any) error {
	path, err := scratch.WriteJSON(r.fileName, doc)
	if err != nil {
		return err
	}

	userData, err := documentFields(doc)
	if err != nil {
		return err
	}
	userData["session_id"] = sessionID

	slog.Info("reporting identity evidence", "session_id", sessionID, "trail", trail, "evidence", r.evidenceName)
	if err := r.attester.Attach(ctx, trail, domain.Evidence{
		Name:     r.evidenceName,
		Files:    []string{path},
		UserData: userData,
	}); err != nil {
		return fmt.Errorf("attach %s: %w", r.evidenceName, err)
	}
	return nil
}

func documentFields(doc any) (map[string]any, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal identity document: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("identity document must be a JSON object: %w", err)
	}
	return fields, nil
}
