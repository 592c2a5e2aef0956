package domain

// ChallengeKind identifies one randomized liveness challenge.
type ChallengeKind string

// Challenge kinds. One is drawn uniformly at random per attempt so a
// pre-recorded spoof prepared for a single action cannot be replayed.
const (
	ChallengeBlink     ChallengeKind = "blink"
	ChallengeTurnLeft  ChallengeKind = "turn_left"
	ChallengeTurnRight ChallengeKind = "turn_right"
)

// Challenges returns all challenge kinds in draw order.
func Challenges() []ChallengeKind {
	return []ChallengeKind{ChallengeBlink, ChallengeTurnLeft, ChallengeTurnRight}
}

// Advisory confidence scores attached to liveness outcomes. The score is
// passed downstream to the match gateway; pass/fail is decided solely by the
// check state machine, never by the score.
const (
	// ScoreFailedMotion is the score for a failed motion check.
	ScoreFailedMotion = 0.2
	// ScoreFailedChallenge is the score for a failed challenge check.
	ScoreFailedChallenge = 0.4
	// ScorePassFloor and ScorePassSpan bound the uniform pass score [0.7, 1.0).
	ScorePassFloor = 0.7
	ScorePassSpan  = 0.3
)

// LivenessOutcome is the immutable result of one verification attempt.
type LivenessOutcome struct {
	Passed bool
	// Score is an advisory confidence in [0,1].
	Score float64
	// Reason is a human-readable failure explanation, empty on pass.
	Reason string
	// Challenge is the kind drawn for this attempt, empty when the attempt
	// ended before challenge selection.
	Challenge ChallengeKind
}
