package attendance

import (
	"context"

	"github.com/veridian-id/livegate/internal/domain"
)

// Verifier runs one liveness verification attempt and returns the outcome
// together with the descriptor captured during the checks.
type Verifier interface {
	Verify(ctx context.Context) (domain.LivenessOutcome, domain.Descriptor, error)
}

// MatchGateway resolves a verified descriptor against enrolled identities
// and records confirmed attendance. A nil candidate is the explicit
// no-match answer.
type MatchGateway interface {
	Match(ctx context.Context, descriptor domain.Descriptor, livenessScore float64) (*domain.MatchCandidate, error)
	Record(ctx context.Context, identityID string, livenessScore, confidence float64) error
}

// Journal persists the audit trail of concluded attempts.
type Journal interface {
	Append(ctx context.Context, rec domain.AttemptRecord) error
	List(ctx context.Context, limit int) ([]domain.AttemptRecord, error)
}
