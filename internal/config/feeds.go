// Package config loads YAML configuration files for feed processing.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedsConfig represents feed processing configuration.
type FeedsConfig struct {
	Feeds struct {
		// MaxItemsPerRefresh caps how many items of a feed document are
		// considered per refresh.
		MaxItemsPerRefresh int `yaml:"max_items_per_refresh"`

		// ContentFetchBlocklist lists feed URL substrings whose items never
		// get a full content fetch. These are feeds that ship complete
		// content already or actively block scrapers.
		ContentFetchBlocklist []string `yaml:"content_fetch_blocklist"`

		// ChatHosts lists hosts served by the chat-channel scrape path
		// instead of feed parsing.
		ChatHosts []string `yaml:"chat_hosts"`
	} `yaml:"feeds"`
}

// DefaultFeedsConfig returns the built-in configuration used when no YAML
// file is provided.
func DefaultFeedsConfig() *FeedsConfig {
	var cfg FeedsConfig
	cfg.Feeds.MaxItemsPerRefresh = 100
	cfg.Feeds.ContentFetchBlocklist = []string{
		"arxiv.org",
		"rsshub.app",
		"xkcd.com",
		"daringfireball.net/feeds",
		"lwn.net",
		"medium.com/feed",
	}
	cfg.Feeds.ChatHosts = []string{"t.me", "telegram.me"}
	return &cfg
}

// LoadFeedsConfig loads feed configuration from a YAML file.
// The path parameter is expected to come from a trusted source (command-line argument or hardcoded default).
func LoadFeedsConfig(path string) (*FeedsConfig, error) {
	// #nosec G304 -- path is provided by trusted source (CLI arg or config), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FeedsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateFeedsConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func validateFeedsConfig(cfg *FeedsConfig) error {
	if cfg.Feeds.MaxItemsPerRefresh <= 0 {
		return fmt.Errorf("max_items_per_refresh must be positive")
	}
	for _, entry := range cfg.Feeds.ContentFetchBlocklist {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("content_fetch_blocklist entries must be non-empty")
		}
	}
	return nil
}

// IsContentFetchBlocked reports whether items of the given feed URL are
// excluded from full content fetching.
func (c *FeedsConfig) IsContentFetchBlocked(feedURL string) bool {
	for _, entry := range c.Feeds.ContentFetchBlocklist {
		if strings.Contains(feedURL, entry) {
			return true
		}
	}
	return false
}
