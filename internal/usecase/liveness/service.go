// Package liveness runs the anti-spoofing verification state machine: a
// motion check over the nose-tip trajectory followed by one randomly drawn
// challenge (blink or head turn), producing a pass/fail outcome with an
// advisory confidence score.
package liveness

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
	"github.com/veridian-id/livegate/internal/metrics"
	"github.com/veridian-id/livegate/internal/usecase/capture"
)

// Failure reasons surfaced in outcomes.
const (
	reasonMotionTracking = "lost tracking during motion check"
	reasonStaticImage    = "static image detected"
	reasonBlinkTracking  = "lost tracking during blink check"
	reasonNoBlink        = "no blink detected"
	reasonTurnTracking   = "lost tracking during head turn"
)

// Service verifies a subject's physical presence over one camera stream.
type Service struct {
	capture *capture.Service
	cfg     Config
	rand    Rand
	status  StatusFunc
	logger  *zap.Logger
}

// New creates a liveness service with the default configuration and a
// math/rand/v2 backed randomness source.
func New(sampler *capture.Service, logger *zap.Logger) *Service {
	return &Service{
		capture: sampler,
		cfg:     DefaultConfig(),
		rand:    stdRand{},
		status:  func(string) {},
		logger:  logger,
	}
}

// WithConfig overrides the check cadences and thresholds.
func (s *Service) WithConfig(cfg Config) *Service {
	s.cfg = cfg
	return s
}

// WithRand overrides the randomness source.
func (s *Service) WithRand(r Rand) *Service {
	s.rand = r
	return s
}

// WithStatus sets the operator progress callback.
func (s *Service) WithStatus(fn StatusFunc) *Service {
	if fn != nil {
		s.status = fn
	}
	return s
}

// session is the explicit per-attempt state: the chosen challenge and the
// sample counts. It is owned by one Verify call and discarded when the
// attempt concludes, so concurrent attempts cannot interfere.
type session struct {
	challenge    domain.ChallengeKind
	motionValid  int
	checkValid   int
	checkSampled int
}

// Verify runs one verification attempt: Idle -> MotionCheck ->
// ChallengeCheck{kind} -> Passed | Failed. Check failures are reported as a
// failed outcome, not an error; errors are reserved for camera, model, and
// cancellation failures. The returned descriptor is the face seen during the
// checks, for downstream matching. The camera is released on every path.
func (s *Service) Verify(ctx context.Context) (domain.LivenessOutcome, domain.Descriptor, error) {
	st, err := s.capture.Open(ctx)
	if err != nil {
		return domain.LivenessOutcome{}, nil, err
	}
	defer st.Close()

	sess := &session{}
	outcome, err := s.run(ctx, st, sess)
	if err != nil {
		metrics.LivenessAttemptsTotal.WithLabelValues("error", string(sess.challenge)).Inc()
		return domain.LivenessOutcome{}, nil, err
	}

	result := "failed"
	if outcome.Passed {
		result = "passed"
	}
	metrics.LivenessAttemptsTotal.WithLabelValues(result, string(outcome.Challenge)).Inc()

	s.logger.Info("liveness attempt concluded",
		zap.Bool("passed", outcome.Passed),
		zap.Float64("score", outcome.Score),
		zap.String("challenge", string(outcome.Challenge)),
		zap.String("reason", outcome.Reason),
		zap.Int("motion_valid", sess.motionValid),
		zap.Int("challenge_valid", sess.checkValid),
	)

	return outcome, st.Descriptor(), nil
}

func (s *Service) run(ctx context.Context, st *capture.Stream, sess *session) (domain.LivenessOutcome, error) {
	s.status("hold still, checking for motion")

	start := time.Now()
	points, err := capture.CollectSeries(ctx, st, s.cfg.MotionFrames, s.cfg.MotionInterval, noseTip)
	metrics.LivenessCheckDuration.WithLabelValues("motion").Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.LivenessOutcome{}, fmt.Errorf("motion check: %w", err)
	}
	sess.motionValid = len(points)

	if ok, reason := s.evalMotion(points); !ok {
		return domain.LivenessOutcome{
			Passed: false,
			Score:  domain.ScoreFailedMotion,
			Reason: reason,
		}, nil
	}

	sess.challenge = s.drawChallenge()

	var (
		ok     bool
		reason string
	)
	switch sess.challenge {
	case domain.ChallengeBlink:
		s.status("please blink")
		ok, reason, err = s.runBlink(ctx, st, sess)
	case domain.ChallengeTurnLeft:
		s.status("slowly turn your head to the left")
		ok, reason, err = s.runTurn(ctx, st, sess)
	case domain.ChallengeTurnRight:
		s.status("slowly turn your head to the right")
		ok, reason, err = s.runTurn(ctx, st, sess)
	}
	if err != nil {
		return domain.LivenessOutcome{}, fmt.Errorf("%s challenge: %w", sess.challenge, err)
	}

	if !ok {
		return domain.LivenessOutcome{
			Passed:    false,
			Score:     domain.ScoreFailedChallenge,
			Reason:    reason,
			Challenge: sess.challenge,
		}, nil
	}

	return domain.LivenessOutcome{
		Passed:    true,
		Score:     domain.ScorePassFloor + s.rand.Float64()*domain.ScorePassSpan,
		Challenge: sess.challenge,
	}, nil
}

// drawChallenge picks one challenge uniformly at random. The draw must be
// unpredictable per attempt so a pre-recorded spoof matching a single
// challenge type cannot be replayed.
func (s *Service) drawChallenge() domain.ChallengeKind {
	kinds := domain.Challenges()
	return kinds[s.rand.IntN(len(kinds))]
}

func (s *Service) runBlink(ctx context.Context, st *capture.Stream, sess *session) (bool, string, error) {
	start := time.Now()
	ears, err := capture.CollectSeries(ctx, st, s.cfg.BlinkFrames, s.cfg.BlinkInterval, aspectRatio)
	metrics.LivenessCheckDuration.WithLabelValues("blink").Observe(time.Since(start).Seconds())
	if err != nil {
		return false, "", err
	}
	sess.checkSampled = s.cfg.BlinkFrames
	sess.checkValid = len(ears)

	ok, reason := s.evalBlink(ears)
	return ok, reason, nil
}

func (s *Service) runTurn(ctx context.Context, st *capture.Stream, sess *session) (bool, string, error) {
	start := time.Now()
	xs, err := capture.CollectSeries(ctx, st, s.cfg.TurnFrames, s.cfg.TurnInterval, noseX)
	metrics.LivenessCheckDuration.WithLabelValues("head_turn").Observe(time.Since(start).Seconds())
	if err != nil {
		return false, "", err
	}
	sess.checkSampled = s.cfg.TurnFrames
	sess.checkValid = len(xs)

	ok, reason := s.evalTurn(xs, sess.challenge)
	return ok, reason, nil
}

// evalMotion checks that the subject's nose tip actually travelled between
// frames. A static photo produces near-zero mean displacement.
func (s *Service) evalMotion(points []domain.Point) (bool, string) {
	if len(points) < s.cfg.MotionMinValid {
		return false, reasonMotionTracking
	}

	var travel float64
	for i := 1; i < len(points); i++ {
		travel += domain.Dist(points[i-1], points[i])
	}
	mean := travel / float64(len(points)-1)

	if mean < s.cfg.MotionMinTravel {
		return false, reasonStaticImage
	}
	return true, ""
}

// evalBlink confirms a genuine eye-closure event: the EAR sequence must dip
// below the closed threshold and span a range wide enough to rule out
// sensor noise around a constant value.
func (s *Service) evalBlink(ears []float64) (bool, string) {
	if len(ears) < s.cfg.BlinkMinValid {
		return false, reasonBlinkTracking
	}

	minEAR, maxEAR := ears[0], ears[0]
	for _, e := range ears[1:] {
		minEAR = math.Min(minEAR, e)
		maxEAR = math.Max(maxEAR, e)
	}

	if minEAR < s.cfg.EARClosedMax && maxEAR-minEAR > s.cfg.EARMinRange {
		return true, ""
	}
	return false, reasonNoBlink
}

// evalTurn checks the net horizontal nose-tip displacement between the first
// and last valid frame against the demanded direction.
func (s *Service) evalTurn(xs []float64, kind domain.ChallengeKind) (bool, string) {
	if len(xs) < s.cfg.TurnMinValid {
		return false, reasonTurnTracking
	}

	delta := xs[len(xs)-1] - xs[0]

	var ok bool
	var dir string
	switch kind {
	case domain.ChallengeTurnLeft:
		ok = delta < -s.cfg.TurnMinTravel
		dir = "left"
	case domain.ChallengeTurnRight:
		ok = delta > s.cfg.TurnMinTravel
		dir = "right"
	}
	if ok {
		return true, ""
	}
	return false, fmt.Sprintf("no %s head turn detected: moved %.1fpx", dir, math.Abs(delta))
}

// Frame extractors for the sample-with-tolerance pass.

func noseTip(det *domain.Detection) (domain.Point, bool) {
	if det == nil {
		return domain.Point{}, false
	}
	return det.Landmarks.NoseTip()
}

func noseX(det *domain.Detection) (float64, bool) {
	tip, ok := noseTip(det)
	if !ok {
		return 0, false
	}
	return tip.X, true
}

func aspectRatio(det *domain.Detection) (float64, bool) {
	if det == nil {
		return 0, false
	}
	return det.Landmarks.AspectRatio(), true
}

// stdRand adapts math/rand/v2 to the Rand contract.
type stdRand struct{}

func (stdRand) IntN(n int) int   { return rand.Intn(n) }
func (stdRand) Float64() float64 { return rand.Float64() }
