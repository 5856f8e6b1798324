package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"feed-ingest/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFeedsConfig(t *testing.T) {
	cfg := config.DefaultFeedsConfig()
	assert.Equal(t, 100, cfg.Feeds.MaxItemsPerRefresh)
	assert.True(t, cfg.IsContentFetchBlocked("https://rsshub.app/github/trending"))
	assert.True(t, cfg.IsContentFetchBlocked("http://export.arxiv.org/rss/cs.CL"))
	assert.False(t, cfg.IsContentFetchBlocked("https://example.com/feed.xml"))
}

func TestLoadFeedsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	content := `feeds:
  max_items_per_refresh: 50
  content_fetch_blocklist:
    - "example.org/feed"
  chat_hosts:
    - "t.me"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.LoadFeedsConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Feeds.MaxItemsPerRefresh)
	assert.True(t, cfg.IsContentFetchBlocked("https://example.org/feed"))
}

func TestLoadFeedsConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feeds:\n  max_items_per_refresh: 0\n"), 0o600))

	_, err := config.LoadFeedsConfig(path)
	assert.ErrorContains(t, err, "max_items_per_refresh")
}
