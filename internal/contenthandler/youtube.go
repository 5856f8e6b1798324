package contenthandler

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
)

// YouTubeHandler builds a watchable page for video links via the oEmbed API
// instead of scraping the watch page, which carries no useful article text.
type YouTubeHandler struct {
	BaseHandler
	client *http.Client
}

func NewYouTubeHandler(client *http.Client) *YouTubeHandler {
	return &YouTubeHandler{BaseHandler: NewBaseHandler("youtube"), client: client}
}

func (h *YouTubeHandler) ShouldPreHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		return u.Path == "/watch" || strings.HasPrefix(u.Path, "/shorts/")
	case "youtu.be":
		return u.Path != "/"
	}
	return false
}

type oEmbedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	HTML         string `json:"html"`
}

func (h *YouTubeHandler) PreHandle(ctx context.Context, rawURL string) (*PreHandleResult, error) {
	oembedURL := "https://www.youtube.com/oembed?format=json&url=" + url.QueryEscape(rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("youtube oembed: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube oembed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube oembed: HTTP %d", resp.StatusCode)
	}

	var embed oEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embed); err != nil {
		return nil, fmt.Errorf("youtube oembed decode: %w", err)
	}

	content := fmt.Sprintf(`<html><head>
<title>%s</title>
<meta property="og:image" content="%s" />
<meta property="og:title" content="%s" />
</head><body><article id="video-container">
%s
<p>By <a href="%s">%s</a></p>
</article></body></html>`,
		html.EscapeString(embed.Title),
		html.EscapeString(embed.ThumbnailURL),
		html.EscapeString(embed.Title),
		embed.HTML,
		html.EscapeString(embed.AuthorURL),
		html.EscapeString(embed.AuthorName))

	return &PreHandleResult{
		URL:         rawURL,
		Title:       embed.Title,
		Content:     content,
		ContentType: "text/html",
	}, nil
}
