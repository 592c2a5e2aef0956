package camera

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/veridian-id/livegate/internal/domain"
)

func newTestClient(url string) *Client {
	return NewClient(&Config{
		SnapshotURL: url,
		Timeout:     2 * time.Second,
		Logger:      zap.NewNop(),
	})
}

func TestOpen_ProbesEndpoint(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write([]byte{0xFF, 0xD8, 0xFF}) // JPEG magic
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	sess, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Close()

	if hits.Load() != 1 {
		t.Errorf("expected 1 probe request, got %d", hits.Load())
	}
}

func TestOpen_UnreachableCamera(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // connection refused

	c := newTestClient(srv.URL)
	_, err := c.Open(context.Background())
	if !errors.Is(err, domain.ErrCameraUnavailable) {
		t.Errorf("expected ErrCameraUnavailable, got %v", err)
	}
}

func TestOpen_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Open(context.Background())
	if !errors.Is(err, domain.ErrCameraUnavailable) {
		t.Errorf("expected ErrCameraUnavailable, got %v", err)
	}
}

func TestGrab_ReturnsFrameBytes(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	sess, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Close()

	frame, err := sess.Grab(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frame) != len(payload) {
		t.Errorf("expected %d bytes, got %d", len(payload), len(frame))
	}
}

func TestGrab_CameraDiesMidSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte{0xFF, 0xD8})
	}))

	c := newTestClient(srv.URL)
	sess, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Close()

	srv.Close()

	_, err = sess.Grab(context.Background())
	if !errors.Is(err, domain.ErrCameraUnavailable) {
		t.Errorf("expected ErrCameraUnavailable, got %v", err)
	}
}

func TestGrab_EmptyBody(t *testing.T) {
	var probed atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !probed.Swap(true) {
			w.Write([]byte{0xFF})
			return
		}
		// subsequent grabs return nothing
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	sess, err := c.Open(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer sess.Close()

	_, err = sess.Grab(context.Background())
	if !errors.Is(err, domain.ErrCameraUnavailable) {
		t.Errorf("expected ErrCameraUnavailable on empty body, got %v", err)
	}
}
