package liveness

import "time"

// Config holds the check cadences and thresholds. Pass/fail is decided by
// these checks alone; the outcome score is advisory.
type Config struct {
	// Motion check: mean consecutive nose-tip displacement must reach
	// MotionMinTravel pixels across MotionFrames samples.
	MotionFrames    int
	MotionInterval  time.Duration
	MotionMinValid  int
	MotionMinTravel float64

	// Blink challenge: the EAR sequence must dip below EARClosedMax with a
	// range above EARMinRange, distinguishing an eye closure from noise.
	BlinkFrames   int
	BlinkInterval time.Duration
	BlinkMinValid int
	EARClosedMax  float64
	EARMinRange   float64

	// Head-turn challenge: net horizontal nose-tip displacement must exceed
	// TurnMinTravel pixels in the demanded direction.
	TurnFrames    int
	TurnInterval  time.Duration
	TurnMinValid  int
	TurnMinTravel float64
}

// DefaultConfig returns the production cadences and thresholds.
func DefaultConfig() Config {
	return Config{
		MotionFrames:    8,
		MotionInterval:  60 * time.Millisecond,
		MotionMinValid:  4,
		MotionMinTravel: 3.0,

		BlinkFrames:   12,
		BlinkInterval: 50 * time.Millisecond,
		BlinkMinValid: 6,
		EARClosedMax:  0.25,
		EARMinRange:   0.12,

		TurnFrames:    15,
		TurnInterval:  60 * time.Millisecond,
		TurnMinValid:  8,
		TurnMinTravel: 12.0,
	}
}
