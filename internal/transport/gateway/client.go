package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
	"github.com/veridian-id/livegate/internal/metrics"
)

// Client talks to the match gateway: descriptor matching, enrollment
// persistence and attendance recording live there.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds the match gateway settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a match gateway client.
func NewClient(cfg *Config) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
	}
}

type matchRequest struct {
	Descriptor    domain.Descriptor `json:"descriptor"`
	LivenessScore float64           `json:"liveness_score"`
}

type matchResponse struct {
	Found      bool    `json:"found"`
	IdentityID string  `json:"identity_id"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Distance   float64 `json:"distance"`
}

// Match looks up the nearest enrolled identity for a descriptor.
// Returns nil when no identity is within the gateway's distance threshold.
func (c *Client) Match(ctx context.Context, descriptor domain.Descriptor, livenessScore float64) (*domain.MatchCandidate, error) {
	var resp matchResponse
	err := c.do(ctx, "match", http.MethodPost, "/api/v1/match", matchRequest{
		Descriptor:    descriptor,
		LivenessScore: livenessScore,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if !resp.Found {
		return nil, nil
	}
	return &domain.MatchCandidate{
		IdentityID:  resp.IdentityID,
		DisplayName: resp.Name,
		Confidence:  resp.Confidence,
		Distance:    resp.Distance,
	}, nil
}

type enrollRequest struct {
	IdentityID  string            `json:"identity_id"`
	DisplayName string            `json:"display_name"`
	Descriptor  domain.Descriptor `json:"descriptor"`
}

// Enroll registers an averaged descriptor under a new identity.
func (c *Client) Enroll(ctx context.Context, identityID, displayName string, descriptor domain.Descriptor) error {
	return c.do(ctx, "enroll", http.MethodPost, "/api/v1/identities", enrollRequest{
		IdentityID:  identityID,
		DisplayName: displayName,
		Descriptor:  descriptor,
	}, nil)
}

type recordRequest struct {
	IdentityID    string  `json:"identity_id"`
	LivenessScore float64 `json:"liveness_score"`
	Confidence    float64 `json:"confidence"`
}

// Record commits a confirmed attendance event for an identity.
func (c *Client) Record(ctx context.Context, identityID string, livenessScore, confidence float64) error {
	return c.do(ctx, "record", http.MethodPost, "/api/v1/attendance", recordRequest{
		IdentityID:    identityID,
		LivenessScore: livenessScore,
		Confidence:    confidence,
	}, nil)
}

// HealthCheck verifies gateway availability.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway health: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway health status %d", resp.StatusCode)
	}
	return nil
}

// conflictBody is the gateway's 409 payload.
type conflictBody struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// do performs one request with metrics and error mapping. No retries: a
// failed request surfaces immediately so the operator can re-run the attempt.
func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s: %w: %w", op, domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		metrics.GatewayRequestsTotal.WithLabelValues(op, "conflict").Inc()
		return parseConflict(resp.Body)
	case resp.StatusCode >= http.StatusInternalServerError:
		metrics.GatewayRequestsTotal.WithLabelValues(op, "error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s status %d: %s: %w", op, resp.StatusCode, string(raw), domain.ErrGatewayUnavailable)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		metrics.GatewayRequestsTotal.WithLabelValues(op, "error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s status %d: %s", op, resp.StatusCode, string(raw))
	}

	metrics.GatewayRequestsTotal.WithLabelValues(op, "success").Inc()
	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(duration.Seconds())

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// parseConflict maps a 409 body onto the duplicate sentinel it names.
func parseConflict(r io.Reader) error {
	var parsed conflictBody
	if err := json.NewDecoder(r).Decode(&parsed); err != nil {
		return domain.NewConflict(domain.ErrDuplicateIdentity, "gateway conflict")
	}

	switch parsed.Kind {
	case "duplicate_face":
		return domain.NewConflict(domain.ErrDuplicateFace, parsed.Detail)
	default:
		return domain.NewConflict(domain.ErrDuplicateIdentity, parsed.Detail)
	}
}
