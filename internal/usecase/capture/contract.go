package capture

import (
	"context"

	"github.com/veridian-id/livegate/internal/domain"
)

// FrameSource acquires camera sessions. One session maps to one exclusive
// camera ownership; acquisition failure is domain.ErrCameraUnavailable.
type FrameSource interface {
	Open(ctx context.Context) (FrameSession, error)
}

// FrameSession delivers frames from an acquired camera until closed.
type FrameSession interface {
	Grab(ctx context.Context) (domain.Frame, error)
	Close()
}

// DescriptorSource runs the pretrained face model over a frame. Detect
// returns nil when no face is found; Ready reports domain.ErrModelNotReady
// until the model has finished loading.
type DescriptorSource interface {
	Ready(ctx context.Context) error
	Detect(ctx context.Context, frame domain.Frame) (*domain.Detection, error)
}
