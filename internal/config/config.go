// Package config loads server configuration from defaults, an optional YAML
// file and HOTELHUB_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds all server configuration.
type Config struct {
	Server   Server   `koanf:"server"`
	Upstream Upstream `koanf:"upstream"`
	Auth     Auth     `koanf:"auth"`
	Database Database `koanf:"database"`
	Stream   Stream   `koanf:"stream"`
	Log      Log      `koanf:"log"`
}

// Server configures the HTTP listener.
type Server struct {
	Listen  string `koanf:"listen"`
	BaseURL string `koanf:"baseurl"`
}

// Upstream configures the automation platform connection.
type Upstream struct {
	URL   string `koanf:"url"`   // websocket URL, ws:// or wss://
	Token string `koanf:"token"` // long-lived access token
}

// Auth configures login and sessions.
type Auth struct {
	TOTPSecret string        `koanf:"totp"` // optional, enables 2FA
	SessionTTL time.Duration `koanf:"sessionttl"`
	RateLimit  int           `koanf:"ratelimit"`  // login attempts per window
	RateWindow time.Duration `koanf:"ratewindow"` // login rate limit window
}

// Database configures the SQLite store.
type Database struct {
	Path string `koanf:"path"`
}

// Stream configures the browser event stream.
type Stream struct {
	Keepalive time.Duration `koanf:"keepalive"`
}

// Log configures logging output.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

func defaults() Config {
	return Config{
		Server:   Server{Listen: ":8000", BaseURL: "http://localhost:8000"},
		Auth:     Auth{SessionTTL: 24 * time.Hour, RateLimit: 5, RateWindow: time.Minute},
		Database: Database{Path: "data/hotelhub.db"},
		Stream:   Stream{Keepalive: 30 * time.Second},
		Log:      Log{Level: "info", Format: "console"},
	}
}

// Load reads configuration. A config file is used when HOTELHUB_CONFIG
// points at one; environment variables override everything.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, err
	}

	if path := os.Getenv("HOTELHUB_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// HOTELHUB_UPSTREAM_URL → upstream.url
	err := k.Load(env.Provider("HOTELHUB_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "HOTELHUB_")), "_", ".")
	}), nil)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that required settings are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Upstream.URL == "" {
		errs = append(errs, "upstream.url is required (HOTELHUB_UPSTREAM_URL)")
	} else if !strings.HasPrefix(c.Upstream.URL, "ws://") && !strings.HasPrefix(c.Upstream.URL, "wss://") {
		errs = append(errs, "upstream.url must be a ws:// or wss:// URL")
	}
	if c.Upstream.Token == "" {
		errs = append(errs, "upstream.token is required (HOTELHUB_UPSTREAM_TOKEN)")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Auth.SessionTTL < time.Minute {
		errs = append(errs, "auth.sessionttl must be at least 1m")
	}
	if c.Stream.Keepalive < time.Second {
		errs = append(errs, "stream.keepalive must be at least 1s")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// HasTOTP reports whether two-factor login is configured.
func (c *Config) HasTOTP() bool {
	return c.Auth.TOTPSecret != ""
}
