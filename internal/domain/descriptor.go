package domain

import "fmt"

// Descriptor is a fixed-length vector summarizing one face's appearance.
// It describes what a face looks like, not who it belongs to — identity is
// resolved only by the match gateway. Immutable once produced.
type Descriptor []float32

// Dim returns the descriptor dimensionality.
func (d Descriptor) Dim() int { return len(d) }

// Clone returns an independent copy of the descriptor.
func (d Descriptor) Clone() Descriptor {
	if d == nil {
		return nil
	}
	out := make(Descriptor, len(d))
	copy(out, d)
	return out
}

// AverageDescriptors reduces enrollment samples to one representative
// descriptor by independent per-dimension arithmetic mean. All samples must
// share the same dimensionality; the descriptor source is assumed uniform,
// so a mismatch is a defensive failure, never averaged around.
func AverageDescriptors(samples []Descriptor) (Descriptor, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("average descriptors: no samples")
	}

	dim := samples[0].Dim()
	if dim == 0 {
		return nil, fmt.Errorf("average descriptors: empty descriptor: %w", ErrDescriptorDimMismatch)
	}
	for i, s := range samples {
		if s.Dim() != dim {
			return nil, fmt.Errorf("average descriptors: sample %d has dim %d, want %d: %w",
				i, s.Dim(), dim, ErrDescriptorDimMismatch)
		}
	}

	sums := make([]float64, dim)
	for _, s := range samples {
		for i, v := range s {
			sums[i] += float64(v)
		}
	}

	avg := make(Descriptor, dim)
	n := float64(len(samples))
	for i, sum := range sums {
		avg[i] = float32(sum / n)
	}
	return avg, nil
}
