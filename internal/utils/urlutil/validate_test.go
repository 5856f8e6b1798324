package urlutil_test

import (
	"errors"
	"testing"

	"feed-ingest/internal/utils/urlutil"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "https url", url: "https://example.com/feed.xml"},
		{name: "http url", url: "http://example.com/feed.xml"},
		{name: "ftp scheme", url: "ftp://example.com/feed.xml", wantErr: urlutil.ErrInvalidURL},
		{name: "mailto scheme", url: "mailto:user@example.com", wantErr: urlutil.ErrInvalidURL},
		{name: "empty host", url: "https:///feed.xml", wantErr: urlutil.ErrInvalidURL},
		{name: "localhost", url: "http://localhost:8080/feed", wantErr: urlutil.ErrPrivateIP},
		{name: "zero address", url: "http://0.0.0.0/feed", wantErr: urlutil.ErrPrivateIP},
		{name: "loopback ip", url: "http://127.0.0.1/feed", wantErr: urlutil.ErrPrivateIP},
		{name: "private ip", url: "http://192.168.1.10/feed", wantErr: urlutil.ErrPrivateIP},
		{name: "ten dot", url: "http://10.0.0.5/feed", wantErr: urlutil.ErrPrivateIP},
		{name: "link local", url: "http://169.254.169.254/latest/meta-data", wantErr: urlutil.ErrPrivateIP},
		{name: "ipv6 loopback", url: "http://[::1]/feed", wantErr: urlutil.ErrPrivateIP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := urlutil.Validate(tt.url)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips utm parameters",
			in:   "https://example.com/post?utm_source=rss&utm_medium=feed&id=42",
			want: "https://example.com/post?id=42",
		},
		{
			name: "strips fragment",
			in:   "https://example.com/post#section-2",
			want: "https://example.com/post",
		},
		{
			name: "keeps www and trailing slash",
			in:   "https://www.example.com/post/",
			want: "https://www.example.com/post/",
		},
		{
			name: "strips tweet share params",
			in:   "https://twitter.com/wemem/status/1673218959624093698?s=12&t=R91quPajs0E",
			want: "https://twitter.com/wemem/status/1673218959624093698",
		},
		{
			name: "keeps s param on non-tweet urls",
			in:   "https://example.com/search?s=go",
			want: "https://example.com/search?s=go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, urlutil.Clean(tt.in))
		})
	}
}

func TestAbsolutize(t *testing.T) {
	assert.Equal(t, "https://example.com/a/b", urlutil.Absolutize("/a/b", "https://example.com/feed.xml"))
	assert.Equal(t, "https://other.com/x", urlutil.Absolutize("https://other.com/x", "https://example.com/"))
	assert.Equal(t, "", urlutil.Absolutize("://bad", "https://example.com/"))
}
