package port

//go:generate go tool mockgen -source=evidence.go -destination=mocks/evidence_mock.go -package=mocks

import (
	"context"

	"github.com/arturoeanton/go-ecs-exec-evidence/internal/domain"
)

// EvidenceRegistry ensures durable evidence trails exist.
type EvidenceRegistry interface {
	// EnsureTrail creates the named trail from tmpl unless it already exists.
	// A nil error means the trail exists; it does not mean it was created by this call.
	EnsureTrail(ctx context.Context, name string, tmpl domain.TrailTemplate) error
}

// Attester attaches evidence to an existing trail. Repeated calls with the
// same evidence name append further records; nothing is deduplicated.
type Attester interface {
	Attach(ctx context.Context, trail string, ev domain.Evidence) error
}
