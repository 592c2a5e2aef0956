package detector

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
)

func newTestClient(url string) *Client {
	return NewClient(&Config{
		BaseURL: url,
		Timeout: 2 * time.Second,
		Logger:  zap.NewNop(),
	})
}

func pointsJSON(n int) string {
	pts := make([]string, n)
	for i := range pts {
		pts[i] = `{"x":1,"y":2}`
	}
	return "[" + strings.Join(pts, ",") + "]"
}

func detectBody(found bool, leftEye, rightEye, nose int) string {
	return `{
		"found": ` + map[bool]string{true: "true", false: "false"}[found] + `,
		"descriptor": [0.1, 0.2, 0.3],
		"landmarks": {
			"left_eye": ` + pointsJSON(leftEye) + `,
			"right_eye": ` + pointsJSON(rightEye) + `,
			"nose": ` + pointsJSON(nose) + `
		}
	}`
}

func TestReady_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ready" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).Ready(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReady_ModelLoading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Ready(context.Background())
	if !errors.Is(err, domain.ErrModelNotReady) {
		t.Errorf("expected ErrModelNotReady, got %v", err)
	}
}

func TestReady_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	err := newTestClient(srv.URL).Ready(context.Background())
	if !errors.Is(err, domain.ErrModelNotReady) {
		t.Errorf("expected ErrModelNotReady, got %v", err)
	}
}

func TestDetect_SendsBase64Frame(t *testing.T) {
	frame := domain.Frame{0xFF, 0xD8, 0x01}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Frame string `json:"frame"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Frame != base64.StdEncoding.EncodeToString(frame) {
			t.Errorf("frame not base64-encoded: %q", req.Frame)
		}
		w.Write([]byte(detectBody(true, 6, 6, 4)))
	}))
	defer srv.Close()

	det, err := newTestClient(srv.URL).Detect(context.Background(), frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det == nil {
		t.Fatal("expected a detection")
	}
	if det.Descriptor.Dim() != 3 {
		t.Errorf("expected 3-dim descriptor, got %d", det.Descriptor.Dim())
	}
	if _, ok := det.Landmarks.NoseTip(); !ok {
		t.Error("expected nose tip to be present")
	}
}

func TestDetect_NoFaceIsNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"found": false}`))
	}))
	defer srv.Close()

	det, err := newTestClient(srv.URL).Detect(context.Background(), domain.Frame{0x01})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if det != nil {
		t.Errorf("expected nil detection, got %+v", det)
	}
}

func TestDetect_MalformedLandmarks(t *testing.T) {
	tests := []struct {
		name                    string
		leftEye, rightEye, nose int
	}{
		{"left eye short", 5, 6, 4},
		{"right eye long", 6, 7, 4},
		{"nose too short", 6, 6, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(detectBody(true, tt.leftEye, tt.rightEye, tt.nose)))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).Detect(context.Background(), domain.Frame{0x01})
			if err == nil {
				t.Error("expected an error for malformed landmarks")
			}
		})
	}
}

func TestDetect_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model crashed"))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Detect(context.Background(), domain.Frame{0x01})
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status error, got %v", err)
	}
}
