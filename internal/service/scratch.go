package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

// Scratch is a private working directory for one invocation. Concurrent or
// repeated invocations for the same session never share one.
type Scratch struct {
	Dir string
}

// NewScratch creates a fresh directory under base keyed by sessionID.
func NewScratch(base, sessionID string) (*Scratch, error) {
	if base == "" {
		base = os.TempDir()
	}
	name := fmt.Sprintf("%s-%s", domain.TrailName(sessionID), uuid.NewString())
	dir := filepath.Join(base, "ecs-exec-evidence", name)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{Dir: dir}, nil
}

// WriteJSON writes v to name inside the scratch directory and returns its path.
func (s *Scratch) WriteJSON(name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	p := filepath.Join(s.Dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return p, nil
}

// Cleanup removes the directory and everything in it.
func (s *Scratch) Cleanup() error {
	return os.RemoveAll(s.Dir)
}
