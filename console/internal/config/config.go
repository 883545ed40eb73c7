// Package config handles console configuration loading and validation.
//
// # Configuration Sources
//
// Configuration is loaded from (in order of precedence):
// 1. Command-line flags
// 2. Environment variables (SPOTCONSOLE_*)
// 3. Config file (YAML)
// 4. Defaults
//
// # Example Config File
//
//	backend:
//	  url: https://spot.example.com
//	  timeout: 30s
//	  rate_limit: 120
//
//	auth:
//	  token_file: /run/secrets/spot-admin-token
//
//	polling:
//	  notification_interval: 30s
//	  health_interval: 30s
//	  summary_interval: 60s
//	  system_interval: 60s
//
//	cache:
//	  redis_url: redis://localhost:6379/0
//	  ttl: 15m
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete console configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Auth    AuthConfig    `yaml:"auth"`
	Polling PollingConfig `yaml:"polling"`
	Cache   CacheConfig   `yaml:"cache"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// BackendConfig defines how to reach the backend API.
type BackendConfig struct {
	URL       string        `yaml:"url"` // e.g., https://spot.example.com
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit int           `yaml:"rate_limit"` // requests per minute, 0 = unlimited
	UserAgent string        `yaml:"user_agent,omitempty"`

	// TLS settings
	InsecureSkipVerify bool `yaml:"insecure_skip_verify,omitempty"`
}

// AuthConfig locates the admin API token.
type AuthConfig struct {
	Backend     string            `yaml:"backend,omitempty"` // auto, static, file, 1password
	Token       string            `yaml:"token,omitempty"`
	TokenFile   string            `yaml:"token_file,omitempty"`
	OnePassword OnePasswordConfig `yaml:"onepassword,omitempty"`
}

// OnePasswordConfig locates the token in a 1Password Connect vault.
type OnePasswordConfig struct {
	Host    string `yaml:"host"`
	Token   string `yaml:"token"`
	VaultID string `yaml:"vault_id"`
	Item    string `yaml:"item"`
	Field   string `yaml:"field,omitempty"`
}

// PollingConfig sets the feed intervals. Zero disables a feed.
type PollingConfig struct {
	NotificationInterval time.Duration `yaml:"notification_interval"`
	HealthInterval       time.Duration `yaml:"health_interval"`
	SummaryInterval      time.Duration `yaml:"summary_interval"`
	SystemInterval       time.Duration `yaml:"system_interval"`
	ActiveViewInterval   time.Duration `yaml:"active_view_interval"`
}

// CacheConfig enables the Redis feed cache.
type CacheConfig struct {
	RedisURL  string        `yaml:"redis_url,omitempty"`
	TTL       time.Duration `yaml:"ttl,omitempty"`
	Namespace string        `yaml:"namespace,omitempty"`
}

// BreakerConfig tunes the poller circuit breaker.
type BreakerConfig struct {
	Failures    uint32        `yaml:"failures"`
	OpenTimeout time.Duration `yaml:"open_timeout"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Timeout: 30 * time.Second,
		},
		Auth: AuthConfig{
			Backend: "auto",
		},
		Polling: PollingConfig{
			NotificationInterval: 30 * time.Second,
			HealthInterval:       30 * time.Second,
			SummaryInterval:      60 * time.Second,
			SystemInterval:       60 * time.Second,
			ActiveViewInterval:   30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 15 * time.Minute,
		},
		Breaker: BreakerConfig{
			Failures:    3,
			OpenTimeout: 60 * time.Second,
		},
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.url must be an http(s) URL, got %q", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if c.Backend.RateLimit < 0 {
		return fmt.Errorf("backend.rate_limit must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"notification_interval": c.Polling.NotificationInterval,
		"health_interval":       c.Polling.HealthInterval,
		"summary_interval":      c.Polling.SummaryInterval,
		"system_interval":       c.Polling.SystemInterval,
		"active_view_interval":  c.Polling.ActiveViewInterval,
	} {
		if d < 0 {
			return fmt.Errorf("polling.%s must not be negative", name)
		}
	}
	switch c.Auth.Backend {
	case "", "auto", "static", "file", "1password":
	default:
		return fmt.Errorf("auth.backend must be auto, static, file or 1password, got %q", c.Auth.Backend)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
// Environment variables use SPOTCONSOLE_ prefix:
// - SPOTCONSOLE_BACKEND_URL
// - SPOTCONSOLE_BACKEND_TIMEOUT (duration, e.g. 10s)
// - SPOTCONSOLE_BACKEND_RATE_LIMIT
// - SPOTCONSOLE_TOKEN
// - SPOTCONSOLE_TOKEN_FILE
// - SPOTCONSOLE_REDIS_URL
// - OP_CONNECT_HOST, OP_CONNECT_TOKEN, OP_VAULT_ID, SPOTCONSOLE_OP_ITEM
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SPOTCONSOLE_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("SPOTCONSOLE_BACKEND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Backend.Timeout = d
		}
	}
	if v := os.Getenv("SPOTCONSOLE_BACKEND_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.RateLimit = n
		}
	}
	if v := os.Getenv("SPOTCONSOLE_TOKEN"); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv("SPOTCONSOLE_TOKEN_FILE"); v != "" {
		c.Auth.TokenFile = v
	}
	if v := os.Getenv("SPOTCONSOLE_REDIS_URL"); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv("OP_CONNECT_HOST"); v != "" {
		c.Auth.OnePassword.Host = v
	}
	if v := os.Getenv("OP_CONNECT_TOKEN"); v != "" {
		c.Auth.OnePassword.Token = v
	}
	if v := os.Getenv("OP_VAULT_ID"); v != "" {
		c.Auth.OnePassword.VaultID = v
	}
	if v := os.Getenv("SPOTCONSOLE_OP_ITEM"); v != "" {
		c.Auth.OnePassword.Item = v
	}
}
