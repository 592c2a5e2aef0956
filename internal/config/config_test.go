package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Camera:   CameraConfig{SnapshotURL: "http://cam.local/snapshot"},
		Detector: DetectorConfig{BaseURL: "http://detector.local"},
		Gateway:  GatewayConfig{BaseURL: "http://gateway.local"},
	}
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_MissingFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"no db addrs", func(c *Config) { c.Database.Addrs = nil }, "database.addrs"},
		{"no camera", func(c *Config) { c.Camera.SnapshotURL = "" }, "camera.snapshot_url"},
		{"no detector", func(c *Config) { c.Detector.BaseURL = "" }, "detector.base_url"},
		{"no gateway", func(c *Config) { c.Gateway.BaseURL = "" }, "gateway.base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.Journal.KeyPrefix != "livegate:" {
		t.Errorf("key prefix: got %q", cfg.Journal.KeyPrefix)
	}
	if cfg.Journal.RetentionDay != 90 {
		t.Errorf("retention: got %d", cfg.Journal.RetentionDay)
	}
	if cfg.Camera.TimeoutMs != 2000 || cfg.Detector.TimeoutMs != 2000 {
		t.Error("expected default client timeouts")
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("write timeout: got %d", cfg.HTTP.WriteTimeoutSec)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LIVEGATE_TEST_KEY", "secret")

	in := []byte("api_key: ${LIVEGATE_TEST_KEY}\nurl: ${LIVEGATE_TEST_MISSING:-http://fallback}")
	out := string(expandEnvVars(in))

	if !strings.Contains(out, "api_key: secret") {
		t.Errorf("env var not expanded: %q", out)
	}
	if !strings.Contains(out, "url: http://fallback") {
		t.Errorf("default not applied: %q", out)
	}
}
