// Package save resolves article URLs and newsletter emails into readable
// page content. It runs the content handler chain around the generic fetch
// and extraction path.
package save

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"feed-ingest/internal/contenthandler"
	"feed-ingest/internal/infra/fetcher"
	"feed-ingest/internal/utils/text"
	"feed-ingest/internal/utils/urlutil"

	"github.com/PuerkitoBio/goquery"
)

// ResolvedPage is the outcome of resolving one article URL.
type ResolvedPage struct {
	// URL is the final page URL after handler rewrites and redirects.
	URL         string
	Title       string
	Author      string
	Content     string
	TextContent string
	Excerpt     string
	SiteName    string
	WordCount   int
	ContentType string
}

// PageFetcher is the generic article download path.
type PageFetcher interface {
	FetchHTML(ctx context.Context, url string) (*fetcher.Page, error)
}

// Handlers is the slice of the content handler chain the save pipeline uses.
type Handlers interface {
	PreHandle(ctx context.Context, url string) (*contenthandler.PreHandleResult, error)
	PreParse(ctx context.Context, url string, doc *goquery.Document) error
	HandleNewsletter(ctx context.Context, in *contenthandler.EmailInput) (*contenthandler.Newsletter, error)
}

// Config holds the save pipeline settings.
type Config struct {
	// DenyPrivateIPs rejects article URLs pointing at private address
	// space. Always true in production.
	DenyPrivateIPs bool
}

// Service resolves pages and newsletter emails.
type Service struct {
	handlers Handlers
	pages    PageFetcher
	cfg      Config
	logger   *slog.Logger
}

// NewService wires the save pipeline.
func NewService(handlers Handlers, pages PageFetcher, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{handlers: handlers, pages: pages, cfg: cfg, logger: logger}
}

// ResolvePage turns an article URL into readable content.
//
// The pipeline: clean and validate the URL, give the handler chain a chance
// to rewrite or fully produce the document, fetch generically otherwise,
// run pre-parse DOM cleanups, then extract. Binary documents (PDFs) skip
// extraction and return with only URL and content type set.
func (s *Service) ResolvePage(ctx context.Context, rawURL string) (*ResolvedPage, error) {
	pageURL := urlutil.Clean(rawURL)
	if s.cfg.DenyPrivateIPs {
		if err := urlutil.Validate(pageURL); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPageURL, err)
		}
	}

	pre, err := s.handlers.PreHandle(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("pre-handle %s: %w", pageURL, err)
	}

	if pre.ContentType != "" && !strings.HasPrefix(pre.ContentType, "text/html") {
		return &ResolvedPage{URL: pre.URL, Title: pre.Title, ContentType: pre.ContentType}, nil
	}

	finalURL := pre.URL
	html := pre.Content
	contentType := pre.ContentType
	if html == "" {
		page, err := s.pages.FetchHTML(ctx, finalURL)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPageFetchFailed, err)
		}
		finalURL = page.URL
		html = page.HTML
		contentType = page.ContentType
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if err := s.handlers.PreParse(ctx, finalURL, doc); err != nil {
		s.logger.Warn("pre-parse failed, extracting unmodified dom",
			slog.String("url", finalURL),
			slog.Any("error", err))
	} else if cleaned, err := doc.Html(); err == nil {
		html = cleaned
	}

	article, err := fetcher.Extract(html, finalURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	title := article.Title
	if pre.Title != "" {
		title = pre.Title
	}
	resolved := &ResolvedPage{
		URL:         finalURL,
		Title:       title,
		Author:      article.Byline,
		Content:     article.Content,
		TextContent: article.TextContent,
		Excerpt:     article.Excerpt,
		SiteName:    article.SiteName,
		WordCount:   text.CountWords(article.TextContent),
		ContentType: contentType,
	}
	s.logger.Info("page resolved",
		slog.String("url", finalURL),
		slog.Int("word_count", resolved.WordCount))
	return resolved, nil
}

// HandleEmail runs the newsletter chain over an inbound email. Emails no
// handler claims return contenthandler.ErrNotNewsletter.
func (s *Service) HandleEmail(ctx context.Context, in *contenthandler.EmailInput) (*contenthandler.Newsletter, error) {
	nl, err := s.handlers.HandleNewsletter(ctx, in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("newsletter handled",
		slog.String("from", in.From),
		slog.String("url", nl.URL))
	return nl, nil
}
