package fetcher

import (
	"fmt"
	"time"

	"feed-ingest/internal/pkg/config"
)

// Config holds the settings for article page fetching.
type Config struct {
	// Timeout is the maximum duration for a single page request.
	Timeout time.Duration

	// MaxBodySize is the maximum page size in bytes.
	MaxBodySize int64

	// MaxRedirects limits redirect chains. Each target is re-validated
	// against private address ranges.
	MaxRedirects int

	// DenyPrivateIPs rejects pages resolving to private, loopback or
	// link-local addresses. Always true in production.
	DenyPrivateIPs bool

	// UserAgent is sent on every request.
	UserAgent string
}

// DefaultConfig returns production defaults for page fetching.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// LoadConfigFromEnv loads settings from PAGE_FETCH_* environment variables,
// falling back to defaults for anything unset or invalid.
func LoadConfigFromEnv() (Config, []string, error) {
	cfg := DefaultConfig()
	var warnings []string

	timeout := config.LoadEnvDuration("PAGE_FETCH_TIMEOUT", cfg.Timeout, config.ValidatePositiveDuration)
	cfg.Timeout = timeout.Value.(time.Duration)
	warnings = append(warnings, timeout.Warnings...)

	bodySize := config.LoadEnvInt("PAGE_FETCH_MAX_BODY_SIZE", int(cfg.MaxBodySize), func(v int) error {
		return config.ValidateIntRange(v, 1024, 100*1024*1024)
	})
	cfg.MaxBodySize = int64(bodySize.Value.(int))
	warnings = append(warnings, bodySize.Warnings...)

	redirects := config.LoadEnvInt("PAGE_FETCH_MAX_REDIRECTS", cfg.MaxRedirects, func(v int) error {
		return config.ValidateIntRange(v, 0, 10)
	})
	cfg.MaxRedirects = redirects.Value.(int)
	warnings = append(warnings, redirects.Warnings...)

	deny := config.LoadEnvBool("PAGE_FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)
	cfg.DenyPrivateIPs = deny.Value.(bool)
	warnings = append(warnings, deny.Warnings...)

	cfg.UserAgent = config.LoadEnvString("PAGE_FETCH_USER_AGENT", cfg.UserAgent)

	if err := validate(cfg); err != nil {
		return cfg, warnings, fmt.Errorf("page fetch configuration invalid: %w", err)
	}
	return cfg, warnings, nil
}

func validate(cfg Config) error {
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", cfg.Timeout)
	}
	if cfg.MaxBodySize < 1024 {
		return fmt.Errorf("max body size must be at least 1KB, got %d", cfg.MaxBodySize)
	}
	return nil
}
