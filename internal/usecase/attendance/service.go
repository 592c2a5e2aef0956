// Package attendance orchestrates the attendance path: liveness
// verification, identity matching, and the mandatory human confirmation
// gate between a probabilistic match and a persisted record.
package attendance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
)

// Attempt is the outcome of one Begin call. Pending is true when a match
// candidate is held awaiting operator confirmation.
type Attempt struct {
	ID        string
	Outcome   domain.LivenessOutcome
	Candidate *domain.MatchCandidate
	Pending   bool
}

// pendingAttempt is the snapshot held between match and confirmation. The
// confirm path finalizes from this snapshot alone, never re-querying the
// gateway: matching is probabilistic and the operator decides on exactly
// what was shown.
type pendingAttempt struct {
	candidate domain.MatchCandidate
	outcome   domain.LivenessOutcome
}

// Service runs attendance attempts and owns the confirmation gate state.
type Service struct {
	verifier Verifier
	gateway  MatchGateway
	journal  Journal
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]pendingAttempt
}

// New creates an attendance service.
func New(verifier Verifier, gateway MatchGateway, journal Journal, logger *zap.Logger) *Service {
	return &Service{
		verifier: verifier,
		gateway:  gateway,
		journal:  journal,
		logger:   logger,
		pending:  make(map[string]pendingAttempt),
	}
}

// Begin runs one attendance attempt: liveness first, then matching. A
// descriptor is never sent to the gateway without a passed liveness outcome.
// When the gateway proposes a candidate, it is held as pending until the
// operator confirms or rejects; nothing is recorded yet.
func (s *Service) Begin(ctx context.Context) (Attempt, error) {
	outcome, descriptor, err := s.verifier.Verify(ctx)
	if err != nil {
		return Attempt{}, err
	}

	id := uuid.NewString()

	if !outcome.Passed {
		s.appendJournal(ctx, domain.AttemptRecord{
			ID:            id,
			Status:        domain.AttemptFailed,
			LivenessScore: outcome.Score,
			Challenge:     outcome.Challenge,
			Reason:        outcome.Reason,
			CreatedAt:     time.Now().UTC(),
		})
		return Attempt{ID: id, Outcome: outcome}, nil
	}

	candidate, err := s.gateway.Match(ctx, descriptor, outcome.Score)
	if err != nil {
		return Attempt{}, fmt.Errorf("match descriptor: %w", err)
	}

	if candidate == nil {
		s.appendJournal(ctx, domain.AttemptRecord{
			ID:            id,
			Status:        domain.AttemptNoMatch,
			LivenessScore: outcome.Score,
			Challenge:     outcome.Challenge,
			CreatedAt:     time.Now().UTC(),
		})
		return Attempt{ID: id, Outcome: outcome}, nil
	}

	s.mu.Lock()
	s.pending[id] = pendingAttempt{candidate: *candidate, outcome: outcome}
	s.mu.Unlock()

	s.logger.Info("match candidate pending confirmation",
		zap.String("attempt_id", id),
		zap.String("identity_id", candidate.IdentityID),
		zap.Float64("confidence", candidate.Confidence),
		zap.Float64("distance", candidate.Distance),
	)

	return Attempt{ID: id, Outcome: outcome, Candidate: candidate, Pending: true}, nil
}

// Confirm finalizes a pending attempt: the attendance record is written
// from the held candidate and score snapshot. The pending state is consumed
// either way — a failed finalization ends the attempt and the operator
// starts over.
func (s *Service) Confirm(ctx context.Context, attemptID string) (domain.AttemptRecord, error) {
	p, err := s.takePending(attemptID)
	if err != nil {
		return domain.AttemptRecord{}, err
	}

	if err := s.gateway.Record(ctx, p.candidate.IdentityID, p.outcome.Score, p.candidate.Confidence); err != nil {
		return domain.AttemptRecord{}, fmt.Errorf("record attendance: %w", err)
	}

	rec := domain.AttemptRecord{
		ID:            attemptID,
		Status:        domain.AttemptConfirmed,
		IdentityID:    p.candidate.IdentityID,
		DisplayName:   p.candidate.DisplayName,
		LivenessScore: p.outcome.Score,
		Confidence:    p.candidate.Confidence,
		Distance:      p.candidate.Distance,
		Challenge:     p.outcome.Challenge,
		CreatedAt:     time.Now().UTC(),
	}
	s.appendJournal(ctx, rec)

	s.logger.Info("attendance confirmed",
		zap.String("attempt_id", attemptID),
		zap.String("identity_id", rec.IdentityID),
	)

	return rec, nil
}

// Reject discards the pending candidate and all liveness state for the
// attempt, returning the system to its initial state so a fresh attempt can
// begin. Nothing is persisted beyond the audit entry.
func (s *Service) Reject(ctx context.Context, attemptID string) error {
	p, err := s.takePending(attemptID)
	if err != nil {
		return err
	}

	s.appendJournal(ctx, domain.AttemptRecord{
		ID:            attemptID,
		Status:        domain.AttemptRejected,
		IdentityID:    p.candidate.IdentityID,
		DisplayName:   p.candidate.DisplayName,
		LivenessScore: p.outcome.Score,
		Confidence:    p.candidate.Confidence,
		Challenge:     p.outcome.Challenge,
		CreatedAt:     time.Now().UTC(),
	})

	s.logger.Info("match candidate rejected by operator",
		zap.String("attempt_id", attemptID),
		zap.String("identity_id", p.candidate.IdentityID),
	)

	return nil
}

// History returns the most recent journal entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.AttemptRecord, error) {
	recs, err := s.journal.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	return recs, nil
}

func (s *Service) takePending(attemptID string) (pendingAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[attemptID]
	if !ok {
		return pendingAttempt{}, fmt.Errorf("attempt %s: %w", attemptID, domain.ErrNoPendingCandidate)
	}
	delete(s.pending, attemptID)
	return p, nil
}

// appendJournal is best-effort: the journal is a local audit trail and must
// not fail an attempt that already concluded.
func (s *Service) appendJournal(ctx context.Context, rec domain.AttemptRecord) {
	if err := s.journal.Append(ctx, rec); err != nil {
		s.logger.Warn("journal append failed",
			zap.String("attempt_id", rec.ID),
			zap.Error(err),
		)
	}
}
