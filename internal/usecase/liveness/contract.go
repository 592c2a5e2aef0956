package liveness

// Rand is the injectable randomness source behind challenge selection and
// pass scoring, so tests can force each challenge kind deterministically.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// StatusFunc receives human-readable stage strings for operator progress
// display. Not part of the algorithmic contract.
type StatusFunc func(stage string)
