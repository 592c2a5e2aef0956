package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
	"github.com/veridian-id/livegate/internal/metrics"
)

const (
	eyePointCount = 6
)

// Client talks to the face-model service (descriptor + landmark extraction).
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds the face-model service settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a face-model client.
func NewClient(cfg *Config) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

// Ready reports whether the face model has finished loading.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ready", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrModelNotReady, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: ready status %d", domain.ErrModelNotReady, resp.StatusCode)
	}
	return nil
}

type detectRequest struct {
	Frame string `json:"frame"`
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type detectResponse struct {
	Found      bool      `json:"found"`
	Descriptor []float32 `json:"descriptor"`
	Landmarks  struct {
		LeftEye  []point `json:"left_eye"`
		RightEye []point `json:"right_eye"`
		Nose     []point `json:"nose"`
	} `json:"landmarks"`
}

// Detect runs the face model on a single frame.
// Returns nil when no face is present in the frame.
func (c *Client) Detect(ctx context.Context, frame domain.Frame) (*domain.Detection, error) {
	body, err := json.Marshal(detectRequest{Frame: base64.StdEncoding.EncodeToString(frame)})
	if err != nil {
		return nil, fmt.Errorf("marshal detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.DetectorRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("detect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.DetectorRequestsTotal.WithLabelValues("error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detect status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.DetectorRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode detect response: %w", err)
	}

	metrics.DetectorRequestDuration.Observe(duration.Seconds())

	if !parsed.Found {
		metrics.DetectorRequestsTotal.WithLabelValues("no_face").Inc()
		return nil, nil
	}
	metrics.DetectorRequestsTotal.WithLabelValues("detected").Inc()
	return buildDetection(&parsed)
}

// buildDetection validates landmark cardinalities and converts the wire shape.
func buildDetection(resp *detectResponse) (*domain.Detection, error) {
	if len(resp.Landmarks.LeftEye) != eyePointCount {
		return nil, fmt.Errorf("left eye: expected %d points, got %d", eyePointCount, len(resp.Landmarks.LeftEye))
	}
	if len(resp.Landmarks.RightEye) != eyePointCount {
		return nil, fmt.Errorf("right eye: expected %d points, got %d", eyePointCount, len(resp.Landmarks.RightEye))
	}
	if len(resp.Landmarks.Nose) < domain.MinNosePoints {
		return nil, fmt.Errorf("nose: expected at least %d points, got %d", domain.MinNosePoints, len(resp.Landmarks.Nose))
	}

	det := &domain.Detection{
		Descriptor: domain.Descriptor(resp.Descriptor),
	}
	for i, p := range resp.Landmarks.LeftEye {
		det.Landmarks.LeftEye[i] = domain.Point{X: p.X, Y: p.Y}
	}
	for i, p := range resp.Landmarks.RightEye {
		det.Landmarks.RightEye[i] = domain.Point{X: p.X, Y: p.Y}
	}
	det.Landmarks.Nose = make([]domain.Point, len(resp.Landmarks.Nose))
	for i, p := range resp.Landmarks.Nose {
		det.Landmarks.Nose[i] = domain.Point{X: p.X, Y: p.Y}
	}
	return det, nil
}
