package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("HOTELHUB_UPSTREAM_URL", "ws://ha.local:8123/api/websocket")
	t.Setenv("HOTELHUB_UPSTREAM_TOKEN", "tok")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Listen != ":8000" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.Upstream.URL != "ws://ha.local:8123/api/websocket" {
		t.Errorf("upstream url = %q", cfg.Upstream.URL)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Errorf("session ttl = %v", cfg.Auth.SessionTTL)
	}
	if cfg.Stream.Keepalive != 30*time.Second {
		t.Errorf("keepalive = %v", cfg.Stream.Keepalive)
	}
	if cfg.HasTOTP() {
		t.Error("TOTP enabled without a secret")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
upstream:
  url: ws://from-file:8123/api/websocket
  token: file-token
server:
  listen: ":9999"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HOTELHUB_CONFIG", path)
	t.Setenv("HOTELHUB_UPSTREAM_TOKEN", "env-token")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Listen != ":9999" {
		t.Errorf("listen = %q, want the file value", cfg.Server.Listen)
	}
	if cfg.Upstream.Token != "env-token" {
		t.Errorf("token = %q, want the env value", cfg.Upstream.Token)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := defaults()
		c.Upstream.URL = "wss://ha.example/api/websocket"
		c.Upstream.Token = "tok"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"missing url", func(c *Config) { c.Upstream.URL = "" }, false},
		{"http url", func(c *Config) { c.Upstream.URL = "http://ha.example" }, false},
		{"missing token", func(c *Config) { c.Upstream.Token = "" }, false},
		{"missing db path", func(c *Config) { c.Database.Path = "" }, false},
		{"tiny session ttl", func(c *Config) { c.Auth.SessionTTL = time.Second }, false},
		{"tiny keepalive", func(c *Config) { c.Stream.Keepalive = time.Millisecond }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate accepted a bad config")
			}
		})
	}
}
