package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
	"github.com/veridian-id/livegate/internal/usecase/capture"
)

// Client grabs frames from an HTTP snapshot endpoint (IP camera / frame proxy).
type Client struct {
	snapshotURL string
	httpClient  *http.Client
	logger      *zap.Logger
}

// Config holds the snapshot source settings.
type Config struct {
	SnapshotURL string
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewClient creates a snapshot frame source.
func NewClient(cfg *Config) *Client {
	return &Client{
		snapshotURL: cfg.SnapshotURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      cfg.Logger,
	}
}

// Open probes the snapshot endpoint and returns a session bound to it.
// A failed probe means the camera is off or unreachable.
func (c *Client) Open(ctx context.Context) (capture.FrameSession, error) {
	if _, err := c.fetch(ctx); err != nil {
		return nil, fmt.Errorf("probe %s: %w: %w", c.snapshotURL, domain.ErrCameraUnavailable, err)
	}
	return &session{client: c}, nil
}

func (c *Client) fetch(ctx context.Context) (domain.Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.snapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("snapshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty snapshot body")
	}
	return data, nil
}

// session is a live connection to the snapshot source.
type session struct {
	client *Client
}

// Grab fetches one frame.
func (s *session) Grab(ctx context.Context) (domain.Frame, error) {
	frame, err := s.client.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCameraUnavailable, err)
	}
	return frame, nil
}

// Close releases idle connections to the snapshot source.
func (s *session) Close() {
	s.client.httpClient.CloseIdleConnections()
}
