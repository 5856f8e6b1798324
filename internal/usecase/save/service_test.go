package save

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"feed-ingest/internal/contenthandler"
	"feed-ingest/internal/infra/fetcher"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resolvedHTML = `<html><head><title>Resolved Title</title></head><body>
<article>
<p>The body of the article is long enough for extraction to keep it. It goes
on for a while about something vaguely interesting so the heuristics do not
discard it as boilerplate.</p>
<p>And then a second paragraph rounds things off nicely.</p>
</article>
<div class="junk">subscribe now</div>
</body></html>`

type fakeHandlers struct {
	preHandle     *contenthandler.PreHandleResult
	preHandleErr  error
	preParseErr   error
	preParseCalls int
	removeJunk    bool
	newsletter    *contenthandler.Newsletter
	newsletterErr error
}

func (f *fakeHandlers) PreHandle(_ context.Context, url string) (*contenthandler.PreHandleResult, error) {
	if f.preHandleErr != nil {
		return nil, f.preHandleErr
	}
	if f.preHandle != nil {
		return f.preHandle, nil
	}
	return &contenthandler.PreHandleResult{URL: url}, nil
}

func (f *fakeHandlers) PreParse(_ context.Context, _ string, doc *goquery.Document) error {
	f.preParseCalls++
	if f.removeJunk {
		doc.Find(".junk").Remove()
	}
	return f.preParseErr
}

func (f *fakeHandlers) HandleNewsletter(_ context.Context, _ *contenthandler.EmailInput) (*contenthandler.Newsletter, error) {
	return f.newsletter, f.newsletterErr
}

type fakePages struct {
	page *fetcher.Page
	err  error
	urls []string
}

func (f *fakePages) FetchHTML(_ context.Context, url string) (*fetcher.Page, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func newTestService(h Handlers, p PageFetcher) *Service {
	return NewService(h, p, Config{DenyPrivateIPs: false}, slog.Default())
}

func TestResolvePage_GenericFetch(t *testing.T) {
	handlers := &fakeHandlers{removeJunk: true}
	pages := &fakePages{page: &fetcher.Page{
		URL:         "https://example.com/post",
		HTML:        resolvedHTML,
		ContentType: "text/html; charset=utf-8",
	}}
	svc := newTestService(handlers, pages)

	page, err := svc.ResolvePage(context.Background(), "https://example.com/post?utm_source=feed")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/post"}, pages.urls, "tracking params stripped before fetch")
	assert.Equal(t, "https://example.com/post", page.URL)
	assert.Equal(t, "Resolved Title", page.Title)
	assert.Contains(t, page.TextContent, "second paragraph")
	assert.NotContains(t, page.Content, "subscribe now", "pre-parse cleanup applied before extraction")
	assert.Positive(t, page.WordCount)
	assert.Equal(t, 1, handlers.preParseCalls)
}

func TestResolvePage_HandlerProvidedContent(t *testing.T) {
	handlers := &fakeHandlers{preHandle: &contenthandler.PreHandleResult{
		URL:     "https://example.com/rewritten",
		Title:   "Handler Title",
		Content: resolvedHTML,
	}}
	pages := &fakePages{err: errors.New("must not be called")}
	svc := newTestService(handlers, pages)

	page, err := svc.ResolvePage(context.Background(), "https://t.co/abc")
	require.NoError(t, err)
	assert.Empty(t, pages.urls, "handler content skips the fetch")
	assert.Equal(t, "https://example.com/rewritten", page.URL)
	assert.Equal(t, "Handler Title", page.Title, "handler title wins over extracted title")
}

func TestResolvePage_BinaryShortCircuit(t *testing.T) {
	handlers := &fakeHandlers{preHandle: &contenthandler.PreHandleResult{
		URL:         "https://example.com/paper.pdf",
		ContentType: "application/pdf",
	}}
	pages := &fakePages{err: errors.New("must not be called")}
	svc := newTestService(handlers, pages)

	page, err := svc.ResolvePage(context.Background(), "https://example.com/paper.pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", page.ContentType)
	assert.Empty(t, page.Content)
	assert.Zero(t, handlers.preParseCalls)
}

func TestResolvePage_RejectsPrivateURL(t *testing.T) {
	svc := NewService(&fakeHandlers{}, &fakePages{}, Config{DenyPrivateIPs: true}, slog.Default())

	_, err := svc.ResolvePage(context.Background(), "http://127.0.0.1/admin")
	assert.ErrorIs(t, err, ErrInvalidPageURL)
}

func TestResolvePage_FetchFailure(t *testing.T) {
	pages := &fakePages{err: errors.New("connection refused")}
	svc := newTestService(&fakeHandlers{}, pages)

	_, err := svc.ResolvePage(context.Background(), "https://example.com/post")
	assert.ErrorIs(t, err, ErrPageFetchFailed)
}

func TestResolvePage_PreParseFailureStillExtracts(t *testing.T) {
	handlers := &fakeHandlers{preParseErr: errors.New("selector blew up")}
	pages := &fakePages{page: &fetcher.Page{
		URL:         "https://example.com/post",
		HTML:        resolvedHTML,
		ContentType: "text/html",
	}}
	svc := newTestService(handlers, pages)

	page, err := svc.ResolvePage(context.Background(), "https://example.com/post")
	require.NoError(t, err)
	assert.Contains(t, page.TextContent, "second paragraph")
}

func TestResolvePage_NoReadableContent(t *testing.T) {
	pages := &fakePages{page: &fetcher.Page{
		URL:         "https://example.com/empty",
		HTML:        "",
		ContentType: "text/html",
	}}
	svc := newTestService(&fakeHandlers{}, pages)

	_, err := svc.ResolvePage(context.Background(), "https://example.com/empty")
	assert.ErrorIs(t, err, ErrExtractionFailed)
}

func TestHandleEmail(t *testing.T) {
	want := &contenthandler.Newsletter{
		Email: "digest@example.com",
		Title: "Weekly Digest",
		URL:   "https://example.com/issues/42",
	}
	svc := newTestService(&fakeHandlers{newsletter: want}, &fakePages{})

	got, err := svc.HandleEmail(context.Background(), &contenthandler.EmailInput{
		From:    "Digest <digest@example.com>",
		Subject: "Weekly Digest",
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestHandleEmail_NotNewsletter(t *testing.T) {
	svc := newTestService(&fakeHandlers{newsletterErr: contenthandler.ErrNotNewsletter}, &fakePages{})

	_, err := svc.HandleEmail(context.Background(), &contenthandler.EmailInput{From: "someone@example.com"})
	assert.ErrorIs(t, err, contenthandler.ErrNotNewsletter)
}
