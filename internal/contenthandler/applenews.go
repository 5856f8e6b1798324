package contenthandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// appleNewsUserAgent is a mobile user agent. The apple.news redirect page
// only embeds the article URL when it believes a phone is asking.
const appleNewsUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// AppleNewsHandler rewrites apple.news links to the publisher URL they
// redirect to.
type AppleNewsHandler struct {
	BaseHandler
	client *http.Client
}

func NewAppleNewsHandler(client *http.Client) *AppleNewsHandler {
	return &AppleNewsHandler{BaseHandler: NewBaseHandler("apple-news"), client: client}
}

func (h *AppleNewsHandler) ShouldPreHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.TrimPrefix(u.Hostname(), "www.") == "apple.news"
}

func (h *AppleNewsHandler) PreHandle(ctx context.Context, rawURL string) (*PreHandleResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("apple news: %w", err)
	}
	req.Header.Set("User-Agent", appleNewsUserAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apple news: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("apple news: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("apple news parse: %w", err)
	}

	target := articleURLFromScripts(doc)
	if target == "" {
		return nil, fmt.Errorf("apple news: no article url in %s", rawURL)
	}
	return &PreHandleResult{URL: target}, nil
}

// articleURLFromScripts digs the redirect target out of the inline JSON the
// preview page ships.
func articleURLFromScripts(doc *goquery.Document) string {
	var target string
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		idx := strings.Index(text, `"redirectToUrlAfterTimeout"`)
		if idx < 0 {
			idx = strings.Index(text, `{"articleURL"`)
			if idx < 0 {
				return true
			}
		}
		start := strings.LastIndexByte(text[:idx+1], '{')
		if start < 0 {
			return true
		}
		var payload struct {
			ArticleURL string `json:"articleURL"`
			RedirectTo string `json:"redirectToUrlAfterTimeout"`
		}
		decoder := json.NewDecoder(strings.NewReader(text[start:]))
		if err := decoder.Decode(&payload); err != nil {
			return true
		}
		if payload.ArticleURL != "" {
			target = payload.ArticleURL
			return false
		}
		if payload.RedirectTo != "" {
			target = payload.RedirectTo
			return false
		}
		return true
	})
	return target
}
