package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
)

func newTestClient(url string) *Client {
	return NewClient(&Config{
		BaseURL: url,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Logger:  zap.NewNop(),
	})
}

func TestMatch_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/match" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req struct {
			Descriptor    []float32 `json:"descriptor"`
			LivenessScore float64   `json:"liveness_score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Descriptor) != 3 || req.LivenessScore != 0.85 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"found": true, "identity_id": "emp-7", "name": "Iris Chen",
			"confidence": 0.91, "distance": 0.34,
		})
	}))
	defer srv.Close()

	cand, err := newTestClient(srv.URL).Match(context.Background(), domain.Descriptor{1, 2, 3}, 0.85)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cand == nil {
		t.Fatal("expected a candidate")
	}
	if cand.IdentityID != "emp-7" || cand.DisplayName != "Iris Chen" {
		t.Errorf("unexpected candidate: %+v", cand)
	}
	if cand.Confidence != 0.91 || cand.Distance != 0.34 {
		t.Errorf("unexpected scores: %+v", cand)
	}
}

func TestMatch_NoMatchIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"found": false})
	}))
	defer srv.Close()

	cand, err := newTestClient(srv.URL).Match(context.Background(), domain.Descriptor{1}, 0.7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cand != nil {
		t.Errorf("expected nil candidate, got %+v", cand)
	}
}

func TestMatch_GatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).Match(context.Background(), domain.Descriptor{1}, 0.7)
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Errorf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestMatch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Match(context.Background(), domain.Descriptor{1}, 0.7)
	if !errors.Is(err, domain.ErrGatewayUnavailable) {
		t.Errorf("expected ErrGatewayUnavailable, got %v", err)
	}
}

func TestEnroll_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/identities" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			IdentityID  string    `json:"identity_id"`
			DisplayName string    `json:"display_name"`
			Descriptor  []float32 `json:"descriptor"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.IdentityID != "emp-9" || req.DisplayName != "Mo Adler" || len(req.Descriptor) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Enroll(context.Background(), "emp-9", "Mo Adler", domain.Descriptor{1, 2})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestEnroll_ConflictKinds(t *testing.T) {
	tests := []struct {
		name string
		kind string
		want error
	}{
		{"duplicate identity", "duplicate_identity", domain.ErrDuplicateIdentity},
		{"duplicate face", "duplicate_face", domain.ErrDuplicateFace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(map[string]string{"kind": tt.kind, "detail": "already there"})
			}))
			defer srv.Close()

			err := newTestClient(srv.URL).Enroll(context.Background(), "emp-9", "Mo Adler", domain.Descriptor{1})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var conflict *domain.ConflictError
			if !errors.As(err, &conflict) {
				t.Errorf("expected ConflictError, got %T", err)
			}
		})
	}
}

func TestRecord_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/attendance" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			IdentityID    string  `json:"identity_id"`
			LivenessScore float64 `json:"liveness_score"`
			Confidence    float64 `json:"confidence"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.IdentityID != "emp-7" || req.LivenessScore != 0.8 || req.Confidence != 0.9 {
			t.Errorf("unexpected request: %+v", req)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Record(context.Background(), "emp-7", 0.8, 0.9)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	srv.Close()
	if err := newTestClient(srv.URL).HealthCheck(context.Background()); err == nil {
		t.Error("expected an error after gateway shutdown")
	}
}
