// Package fetcher downloads article pages and extracts readable content.
// It is the generic path of the save pipeline, used whenever no content
// handler short-circuits the fetch.
package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"feed-ingest/internal/resilience/circuitbreaker"
	"feed-ingest/internal/utils/urlutil"

	"github.com/go-shiori/go-readability"
)

// Page is a fetched article page before extraction.
type Page struct {
	// URL is the final URL after redirects.
	URL string

	// HTML is the raw page markup.
	HTML string

	// ContentType is the response Content-Type header.
	ContentType string
}

// Article is the readable content extracted from a page.
type Article struct {
	Title       string
	Byline      string
	Content     string
	TextContent string
	Excerpt     string
	SiteName    string
}

// PageFetcher downloads article pages with SSRF validation on every redirect
// hop, a body size cap and a circuit breaker. Safe for concurrent use.
type PageFetcher struct {
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	config  Config
}

// NewPageFetcher builds a PageFetcher from the given configuration.
func NewPageFetcher(config Config) *PageFetcher {
	f := &PageFetcher{
		config:  config,
		breaker: circuitbreaker.New(circuitbreaker.PageFetchConfig()),
	}
	f.client = &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("too many redirects: %d", len(via))
			}
			if f.config.DenyPrivateIPs {
				if err := urlutil.Validate(req.URL.String()); err != nil {
					return fmt.Errorf("redirect target rejected: %w", err)
				}
			}
			return nil
		},
	}
	return f
}

// FetchHTML downloads the page at urlStr.
func (f *PageFetcher) FetchHTML(ctx context.Context, urlStr string) (*Page, error) {
	if f.config.DenyPrivateIPs {
		if err := urlutil.ValidateResolved(urlStr); err != nil {
			return nil, err
		}
	}

	result, err := f.breaker.Execute(func() (interface{}, error) {
		return f.doFetch(ctx, urlStr)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Page), nil
}

func (f *PageFetcher) doFetch(ctx context.Context, urlStr string) (*Page, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("page request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	limited := io.LimitReader(resp.Body, f.config.MaxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("page body exceeds %d bytes", f.config.MaxBodySize)
	}

	finalURL := urlStr
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Page{
		URL:         finalURL,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Extract runs readability over page markup. pageURL anchors relative links
// in the extracted content.
func Extract(html, pageURL string) (*Article, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		parsed = nil
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		return nil, fmt.Errorf("content extraction failed: %w", err)
	}
	if article.Content == "" && article.TextContent == "" {
		return nil, fmt.Errorf("no readable content found")
	}
	return &Article{
		Title:       article.Title,
		Byline:      article.Byline,
		Content:     article.Content,
		TextContent: article.TextContent,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
	}, nil
}
