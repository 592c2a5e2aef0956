// Package enroll drives biometric registration: it captures a fixed number
// of descriptor samples with stabilization pauses between them, reduces them
// to one averaged descriptor, and persists the result.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
	"github.com/veridian-id/livegate/internal/metrics"
	"github.com/veridian-id/livegate/internal/usecase/capture"
)

// Config holds the enrollment capture parameters.
type Config struct {
	// Samples is the exact number of descriptors an enrollment must collect.
	Samples int
	// StabilizePause precedes each capture so the subject can reposition.
	StabilizePause time.Duration
}

// DefaultConfig returns the production enrollment parameters.
func DefaultConfig() Config {
	return Config{
		Samples:        3,
		StabilizePause: time.Second,
	}
}

// Service aggregates enrollment captures over one camera stream.
type Service struct {
	capture *capture.Service
	gateway Gateway
	journal Journal
	cfg     Config
	status  StatusFunc
	logger  *zap.Logger
}

// New creates an enrollment service with the default configuration.
func New(sampler *capture.Service, gateway Gateway, logger *zap.Logger) *Service {
	return &Service{
		capture: sampler,
		gateway: gateway,
		cfg:     DefaultConfig(),
		status:  func(string) {},
		logger:  logger,
	}
}

// WithConfig overrides the capture count and stabilization pause.
func (s *Service) WithConfig(cfg Config) *Service {
	s.cfg = cfg
	return s
}

// WithStatus sets the operator progress callback.
func (s *Service) WithStatus(fn StatusFunc) *Service {
	if fn != nil {
		s.status = fn
	}
	return s
}

// WithJournal enables audit entries for completed enrollments.
func (s *Service) WithJournal(j Journal) *Service {
	s.journal = j
	return s
}

// Enroll runs one registration session and returns the averaged descriptor
// it persisted. Any capture without a face aborts the whole session —
// partial enrollment is never accepted, and nothing is persisted on failure.
func (s *Service) Enroll(ctx context.Context, identityID, displayName string) (domain.Descriptor, error) {
	st, err := s.capture.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	samples := make([]domain.Descriptor, 0, s.cfg.Samples)
	for i := 0; i < s.cfg.Samples; i++ {
		s.status(fmt.Sprintf("hold still, capturing sample %d of %d", i+1, s.cfg.Samples))

		if err := s.stabilize(ctx); err != nil {
			metrics.EnrollmentsTotal.WithLabelValues("aborted").Inc()
			return nil, err
		}

		det, err := st.Capture(ctx)
		if err != nil {
			metrics.EnrollmentsTotal.WithLabelValues("aborted").Inc()
			return nil, fmt.Errorf("capture %d of %d: %w", i+1, s.cfg.Samples, err)
		}
		if det == nil || det.Descriptor.Dim() == 0 {
			metrics.EnrollmentsTotal.WithLabelValues("aborted").Inc()
			return nil, fmt.Errorf("capture %d of %d: %w", i+1, s.cfg.Samples, domain.ErrFaceNotDetected)
		}

		samples = append(samples, det.Descriptor.Clone())
	}

	avg, err := domain.AverageDescriptors(samples)
	if err != nil {
		metrics.EnrollmentsTotal.WithLabelValues("aborted").Inc()
		return nil, fmt.Errorf("aggregate samples: %w", err)
	}

	s.status("saving enrollment")
	if err := s.gateway.Enroll(ctx, identityID, displayName, avg); err != nil {
		status := "aborted"
		if errors.Is(err, domain.ErrDuplicateIdentity) || errors.Is(err, domain.ErrDuplicateFace) {
			status = "conflict"
		}
		metrics.EnrollmentsTotal.WithLabelValues(status).Inc()
		return nil, fmt.Errorf("persist enrollment: %w", err)
	}

	metrics.EnrollmentsTotal.WithLabelValues("completed").Inc()

	// Best-effort audit entry — enrollment already succeeded at the gateway.
	if s.journal != nil {
		rec := domain.AttemptRecord{
			ID:          uuid.NewString(),
			Status:      domain.AttemptEnrolled,
			IdentityID:  identityID,
			DisplayName: displayName,
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.journal.Append(ctx, rec); err != nil {
			s.logger.Warn("journal append failed",
				zap.String("identity_id", identityID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("enrollment completed",
		zap.String("identity_id", identityID),
		zap.Int("samples", len(samples)),
		zap.Int("descriptor_dim", avg.Dim()),
	)

	return avg, nil
}

// stabilize waits the configured pause so the subject can reposition before
// the next capture.
func (s *Service) stabilize(ctx context.Context) error {
	timer := time.NewTimer(s.cfg.StabilizePause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("enrollment cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
