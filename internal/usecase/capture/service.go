// Package capture drives the frame sampler: it pulls frames from the camera
// at a controlled cadence, runs the descriptor source on each, and hands the
// per-frame detections to the liveness and enrollment flows.
package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
)

// Service opens sampling streams over one camera. The camera is an
// exclusively owned resource: two live attempts never share a session, so a
// second Open while a stream is live fails with domain.ErrAttemptInProgress.
type Service struct {
	camera   FrameSource
	detector DescriptorSource
	logger   *zap.Logger

	mu sync.Mutex // held for the lifetime of one Stream
}

// New creates a capture service.
func New(camera FrameSource, detector DescriptorSource, logger *zap.Logger) *Service {
	return &Service{camera: camera, detector: detector, logger: logger}
}

// Open acquires the camera and returns a single-use sampling stream. The
// descriptor source readiness is checked first: calling the model before it
// is loaded is a programming error surfaced as domain.ErrModelNotReady, and
// in that case the camera is never touched. The caller must Close the stream
// on every exit path.
func (s *Service) Open(ctx context.Context) (*Stream, error) {
	if err := s.detector.Ready(ctx); err != nil {
		return nil, fmt.Errorf("descriptor source: %w", err)
	}

	if !s.mu.TryLock() {
		return nil, domain.ErrAttemptInProgress
	}

	session, err := s.camera.Open(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("acquire camera: %w", err)
	}

	return &Stream{
		svc:      s,
		session:  session,
		detector: s.detector,
		logger:   s.logger,
	}, nil
}

// Stream is a finite, non-restartable sampling sequence bound to one camera
// session.
type Stream struct {
	svc      *Service
	session  FrameSession
	detector DescriptorSource
	logger   *zap.Logger

	lastDescriptor domain.Descriptor
	closeOnce      sync.Once
}

// Sample grabs up to frames frames at the given interval, runs detection on
// each, and passes the result to visit. A frame with no detected face is
// visited with a nil detection rather than an error, so checks can tolerate
// brief tracking loss; transient detector failures are treated the same way.
// Camera failure is terminal and surfaced immediately.
func (st *Stream) Sample(
	ctx context.Context, frames int, interval time.Duration,
	visit func(det *domain.Detection),
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < frames; i++ {
		det, err := st.Capture(ctx)
		if err != nil {
			return err
		}
		visit(det)

		if i == frames-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("sampling cancelled: %w", ctx.Err())
		case <-ticker.C:
		}
	}

	return nil
}

// Capture grabs and detects a single frame. Returns nil detection when no
// face was found. Camera errors are returned as-is (terminal); detector
// errors become a nil detection, the same shape as single-frame tracking
// loss.
func (st *Stream) Capture(ctx context.Context) (*domain.Detection, error) {
	frame, err := st.session.Grab(ctx)
	if err != nil {
		return nil, fmt.Errorf("grab frame: %w", err)
	}

	det, err := st.detector.Detect(ctx, frame)
	if err != nil {
		st.logger.Debug("detection failed, treating frame as tracking loss", zap.Error(err))
		return nil, nil
	}

	if det != nil && det.Descriptor.Dim() > 0 {
		st.lastDescriptor = det.Descriptor
	}
	return det, nil
}

// Descriptor returns the most recent descriptor seen on this stream, or nil
// when no face was ever detected.
func (st *Stream) Descriptor() domain.Descriptor {
	return st.lastDescriptor
}

// Close releases the camera session and the camera lock. Safe to call more
// than once.
func (st *Stream) Close() {
	st.closeOnce.Do(func() {
		st.session.Close()
		st.svc.mu.Unlock()
	})
}

// CollectSeries is the shared sample-with-tolerance pass used by all checks:
// it samples the stream for the full fixed duration, applies extract to each
// frame, and keeps only the values where extraction succeeded. Callers count
// the surviving samples against their own tolerance threshold afterwards.
func CollectSeries[T any](
	ctx context.Context, st *Stream, frames int, interval time.Duration,
	extract func(det *domain.Detection) (T, bool),
) ([]T, error) {
	series := make([]T, 0, frames)
	err := st.Sample(ctx, frames, interval, func(det *domain.Detection) {
		if v, ok := extract(det); ok {
			series = append(series, v)
		}
	})
	if err != nil {
		return nil, err
	}
	return series, nil
}
