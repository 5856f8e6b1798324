package feedfetch

import (
	"fmt"
	"time"

	"feed-ingest/internal/pkg/config"
)

// Config holds the settings for fetching raw feed documents.
type Config struct {
	// Timeout is the maximum duration for a single feed request. Feeds are
	// served by arbitrary third-party hosts, so this is generous.
	Timeout time.Duration

	// MaxBodySize is the maximum feed document size in bytes. Responses
	// exceeding this limit are rejected to prevent memory exhaustion.
	MaxBodySize int64

	// UserAgent is sent on every request. Some feed hosts reject non-browser
	// user agents, so the default mimics a desktop browser.
	UserAgent string

	// MaxRedirects limits redirect chains. Each target is re-validated
	// against private address ranges.
	MaxRedirects int

	// DenyPrivateIPs rejects feed URLs resolving to private, loopback or
	// link-local addresses. Always true in production.
	DenyPrivateIPs bool
}

// DefaultConfig returns production defaults for feed fetching.
func DefaultConfig() Config {
	return Config{
		Timeout:      60 * time.Second,
		MaxBodySize:  10 * 1024 * 1024,
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// LoadConfigFromEnv loads settings from FEED_FETCH_* environment variables,
// falling back to defaults for anything unset or invalid. Fallback warnings
// are returned so the caller can log them.
func LoadConfigFromEnv() (Config, []string, error) {
	cfg := DefaultConfig()
	var warnings []string

	timeout := config.LoadEnvDuration("FEED_FETCH_TIMEOUT", cfg.Timeout, config.ValidatePositiveDuration)
	cfg.Timeout = timeout.Value.(time.Duration)
	warnings = append(warnings, timeout.Warnings...)

	bodySize := config.LoadEnvInt("FEED_FETCH_MAX_BODY_SIZE", int(cfg.MaxBodySize), func(v int) error {
		return config.ValidateIntRange(v, 1024, 100*1024*1024)
	})
	cfg.MaxBodySize = int64(bodySize.Value.(int))
	warnings = append(warnings, bodySize.Warnings...)

	cfg.UserAgent = config.LoadEnvString("FEED_FETCH_USER_AGENT", cfg.UserAgent)

	redirects := config.LoadEnvInt("FEED_FETCH_MAX_REDIRECTS", cfg.MaxRedirects, func(v int) error {
		return config.ValidateIntRange(v, 0, 10)
	})
	cfg.MaxRedirects = redirects.Value.(int)
	warnings = append(warnings, redirects.Warnings...)

	deny := config.LoadEnvBool("FEED_FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)
	cfg.DenyPrivateIPs = deny.Value.(bool)
	warnings = append(warnings, deny.Warnings...)

	if err := cfg.Validate(); err != nil {
		return cfg, warnings, fmt.Errorf("feed fetch configuration invalid: %w", err)
	}
	return cfg, warnings, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxBodySize < 1024 {
		return fmt.Errorf("max body size must be at least 1KB, got %d", c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	return nil
}
