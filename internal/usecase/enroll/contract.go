package enroll

import (
	"context"

	"github.com/veridian-id/livegate/internal/domain"
)

// Gateway persists an enrolled identity with its aggregated descriptor.
// Duplicate identity or face conflicts surface as domain conflict errors.
type Gateway interface {
	Enroll(ctx context.Context, identityID, displayName string, descriptor domain.Descriptor) error
}

// Journal persists the audit trail of completed enrollments.
type Journal interface {
	Append(ctx context.Context, rec domain.AttemptRecord) error
}

// StatusFunc receives human-readable stage strings for operator progress display.
type StatusFunc func(stage string)
