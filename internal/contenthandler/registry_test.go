package contenthandler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"feed-ingest/internal/contenthandler"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_PreHandleMediumResolve(t *testing.T) {
	r := contenthandler.NewRegistry(nil)
	result, err := r.PreHandle(context.Background(), "https://medium.com/@author/some-post-abc123?source=rss-feed")
	require.NoError(t, err)
	assert.Equal(t, "https://medium.com/@author/some-post-abc123", result.URL)
	assert.Empty(t, result.Content, "resolve stage only rewrites the url")
}

func TestRegistry_PreHandlePDF(t *testing.T) {
	r := contenthandler.NewRegistry(nil)
	result, err := r.PreHandle(context.Background(), "https://example.com/papers/whitepaper.PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
}

func TestRegistry_PreHandleImage(t *testing.T) {
	r := contenthandler.NewRegistry(nil)
	result, err := r.PreHandle(context.Background(), "https://example.com/pics/chart.png")
	require.NoError(t, err)
	assert.Equal(t, "chart.png", result.Title)
	assert.Contains(t, result.Content, `og:image`)
	assert.Contains(t, result.Content, "https://example.com/pics/chart.png")
}

func TestRegistry_PreHandleUnknownURLPassesThrough(t *testing.T) {
	r := contenthandler.NewRegistry(nil)
	result, err := r.PreHandle(context.Background(), "https://example.com/article")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/article", result.URL)
	assert.Empty(t, result.Content)
}

func TestTCoHandler_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/short" {
			http.Redirect(w, r, "/long-form-article", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := contenthandler.NewTCoHandler(srv.Client())
	resolved, err := h.Resolve(context.Background(), srv.URL+"/short")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/long-form-article", resolved)
}

func TestRegistry_PreParseWikipedia(t *testing.T) {
	r := contenthandler.NewRegistry(nil)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<html><body><h1>Topic</h1><span class="mw-editsection">edit</span><p>Body text</p><ol class="references"><li>ref</li></ol></body></html>`))
	require.NoError(t, err)

	require.NoError(t, r.PreParse(context.Background(), "https://en.wikipedia.org/wiki/Topic", doc))
	assert.Zero(t, doc.Find(".mw-editsection").Length())
	assert.Zero(t, doc.Find("ol.references").Length())
	assert.Equal(t, 1, doc.Find("p").Length())
}

func TestRegistry_NewsletterPrecedence(t *testing.T) {
	r := contenthandler.NewRegistry(nil)

	// Beehiiv header wins even though List-Unsubscribe would also satisfy
	// the generic catch-all.
	in := &contenthandler.EmailInput{
		From:    "News <hello@mail.beehiiv.com>",
		Subject: "Issue 12",
		HTML:    "<html><body><p>hi</p></body></html>",
		Headers: map[string]string{
			"X-Beehiiv-Type":   "newsletter",
			"List-Unsubscribe": "<https://example.com/unsub>",
		},
	}
	h := r.GetNewsletterHandler(in)
	require.NotNil(t, h)
	assert.Equal(t, "beehiiv", h.Name())
}

func TestRegistry_GenericNewsletterByHeaders(t *testing.T) {
	r := contenthandler.NewRegistry(nil)
	in := &contenthandler.EmailInput{
		From:    "Jane Doe <jane@letters.example.com>",
		Subject: "Weekly notes",
		HTML:    "<html><body><p>words</p></body></html>",
		Headers: map[string]string{
			"List-Unsubscribe": "<mailto:unsub@letters.example.com>, <https://letters.example.com/unsub/1>",
		},
	}

	nl, err := r.HandleNewsletter(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Weekly notes", nl.Title)
	assert.Equal(t, "Jane Doe", nl.Author)
	assert.Equal(t, "unsub@letters.example.com", nl.Unsubscribe.MailTo)
	assert.Equal(t, "https://letters.example.com/unsub/1", nl.Unsubscribe.HTTPURL)
	assert.True(t, strings.HasPrefix(nl.URL, "https://wemem.app/no_url?q="),
		"no web version link falls back to a unique placeholder")
}

func TestRegistry_GhostViewOnlineLinkFollowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/r/tracked" {
			http.Redirect(w, r, "/issues/42", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := contenthandler.NewRegistry(nil)
	in := &contenthandler.EmailInput{
		From:    "Ghost Blog <news@blog.example.com>",
		Subject: "Issue 42",
		HTML:    `<html><body><a class="view-online-link" href="` + srv.URL + `/r/tracked">View online</a><p>content</p></body></html>`,
		Headers: map[string]string{},
	}

	nl, err := r.HandleNewsletter(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/issues/42", nl.URL)
}

func TestRegistry_NotANewsletter(t *testing.T) {
	r := contenthandler.NewRegistry(nil)
	in := &contenthandler.EmailInput{
		From:    "a friend <friend@example.com>",
		Subject: "lunch?",
		HTML:    "<html><body><p>tomorrow?</p></body></html>",
		Headers: map[string]string{},
	}
	_, err := r.HandleNewsletter(context.Background(), in)
	assert.ErrorIs(t, err, contenthandler.ErrNotNewsletter)
}

func TestSubstackHandler_PreParseStaticTweet(t *testing.T) {
	r := contenthandler.NewRegistry(nil)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>
<div class="available-content">
  <p>intro</p>
  <div class="subscribe-widget">subscribe!</div>
  <div class="tweet"><blockquote>tweet text</blockquote><a href="https://twitter.com/u/status/1">link</a></div>
</div></body></html>`))
	require.NoError(t, err)

	require.NoError(t, r.PreParse(context.Background(), "https://example.substack.com/p/post", doc))
	assert.Zero(t, doc.Find(".subscribe-widget").Length())
	assert.Zero(t, doc.Find("div.tweet").Length())
	html, _ := doc.Html()
	assert.Contains(t, html, "tweet text")
	assert.Contains(t, html, "https://twitter.com/u/status/1")
}

func TestBaseHandler_ParseAuthor(t *testing.T) {
	h := contenthandler.NewBaseHandler("test")
	assert.Equal(t, "Jane Doe", h.ParseAuthor(`"Jane Doe" <jane@example.com>`))
	assert.Equal(t, "jane@example.com", h.ParseAuthor("jane@example.com"))
	assert.Equal(t, "not an address", h.ParseAuthor("not an address"))
}
