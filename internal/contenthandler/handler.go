// Package contenthandler implements the site and newsletter specific
// processing chain that runs around generic article extraction. Handlers are
// consulted in a fixed order; the first handler claiming a URL or email wins.
package contenthandler

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/textproto"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// ErrNotHandled signals that a handler declines the input and the generic
// path should run instead.
var ErrNotHandled = errors.New("contenthandler: not handled")

// PreHandleResult is what a handler produced before generic fetching. A
// result with empty Content only rewrites the URL; a result with Content
// short-circuits the fetch entirely.
type PreHandleResult struct {
	URL         string
	Title       string
	Content     string
	ContentType string
}

// Unsubscribe carries the parsed List-Unsubscribe targets of a newsletter.
type Unsubscribe struct {
	MailTo  string
	HTTPURL string
}

// Newsletter is a converted newsletter email ready to be saved as a page.
type Newsletter struct {
	Email       string
	Title       string
	Author      string
	URL         string
	Content     string
	Unsubscribe Unsubscribe
}

// EmailInput is an inbound email presented to the newsletter chain.
type EmailInput struct {
	From    string
	To      string
	Subject string
	HTML    string
	Headers map[string]string

	doc *goquery.Document
}

// Header returns a header value by name, case-insensitively.
func (in *EmailInput) Header(name string) string {
	if v, ok := in.Headers[name]; ok {
		return v
	}
	return in.Headers[textproto.CanonicalMIMEHeaderKey(name)]
}

// Doc lazily parses the email HTML. The parse result is memoized since
// several handlers may inspect the same input.
func (in *EmailInput) Doc() (*goquery.Document, error) {
	if in.doc != nil {
		return in.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse email html: %w", err)
	}
	in.doc = doc
	return doc, nil
}

// Handler is one stage-aware processor in the chain. BaseHandler supplies
// decline-everything defaults so concrete handlers only override the stages
// they participate in.
type Handler interface {
	Name() string

	// Resolve stage: rewrite the URL before anything is fetched.
	ShouldResolve(url string) bool
	Resolve(ctx context.Context, url string) (string, error)

	// Pre-handle stage: produce the document without the generic fetcher.
	ShouldPreHandle(url string) bool
	PreHandle(ctx context.Context, url string) (*PreHandleResult, error)

	// Pre-parse stage: clean the fetched DOM before extraction.
	ShouldPreParse(url string, doc *goquery.Document) bool
	PreParse(ctx context.Context, url string, doc *goquery.Document) error

	// Newsletter stage.
	IsNewsletter(in *EmailInput) bool
	FindNewsletterHeaderHref(doc *goquery.Document) string
	ParseNewsletterURL(ctx context.Context, in *EmailInput) (string, error)
	ParseAuthor(from string) string
	ParseUnsubscribe(header string) Unsubscribe
	HandleNewsletter(ctx context.Context, in *EmailInput) (*Newsletter, error)
}

var (
	unsubscribeHTTPPattern   = regexp.MustCompile(`<(https?://[^>]*)>`)
	unsubscribeMailtoPattern = regexp.MustCompile(`<mailto:([^>]*)>`)
)

// BaseHandler declines every stage. Concrete handlers embed it and override
// selectively; the optional URL pattern powers the default newsletter URL
// extraction.
type BaseHandler struct {
	name       string
	urlPattern *regexp.Regexp
}

// NewBaseHandler builds the embeddable default handler.
func NewBaseHandler(name string) BaseHandler {
	return BaseHandler{name: name}
}

// NewBaseHandlerWithURLPattern also installs the regexp used to pull the
// web version URL out of the email body.
func NewBaseHandlerWithURLPattern(name string, urlPattern *regexp.Regexp) BaseHandler {
	return BaseHandler{name: name, urlPattern: urlPattern}
}

func (h BaseHandler) Name() string { return h.name }

func (h BaseHandler) ShouldResolve(string) bool { return false }

func (h BaseHandler) Resolve(_ context.Context, url string) (string, error) {
	return url, nil
}

func (h BaseHandler) ShouldPreHandle(string) bool { return false }

func (h BaseHandler) PreHandle(context.Context, string) (*PreHandleResult, error) {
	return nil, ErrNotHandled
}

func (h BaseHandler) ShouldPreParse(string, *goquery.Document) bool { return false }

func (h BaseHandler) PreParse(context.Context, string, *goquery.Document) error {
	return nil
}

func (h BaseHandler) IsNewsletter(*EmailInput) bool { return false }

func (h BaseHandler) FindNewsletterHeaderHref(*goquery.Document) string { return "" }

// ParseNewsletterURL applies the handler's URL pattern against the raw HTML.
// Handlers locating the URL in the DOM override FindNewsletterHeaderHref
// instead.
func (h BaseHandler) ParseNewsletterURL(_ context.Context, in *EmailInput) (string, error) {
	if h.urlPattern == nil {
		return "", nil
	}
	match := h.urlPattern.FindStringSubmatch(in.HTML)
	if len(match) < 2 {
		return "", nil
	}
	return strings.TrimSpace(match[1]), nil
}

// ParseAuthor extracts the display name from an RFC 5322 From value, falling
// back to the bare address.
func (h BaseHandler) ParseAuthor(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	if addr.Name != "" {
		return addr.Name
	}
	return addr.Address
}

// ParseUnsubscribe pulls the mailto and http targets out of a
// List-Unsubscribe header value.
func (h BaseHandler) ParseUnsubscribe(header string) Unsubscribe {
	var u Unsubscribe
	if m := unsubscribeMailtoPattern.FindStringSubmatch(header); len(m) == 2 {
		u.MailTo = m[1]
	}
	if m := unsubscribeHTTPPattern.FindStringSubmatch(header); len(m) == 2 {
		u.HTTPURL = m[1]
	}
	return u
}

func (h BaseHandler) HandleNewsletter(context.Context, *EmailInput) (*Newsletter, error) {
	return nil, ErrNotHandled
}

// FallbackNewsletterURL returns a unique placeholder URL for newsletters
// whose web version cannot be located. Saved pages require distinct URLs.
func FallbackNewsletterURL() string {
	return "https://wemem.app/no_url?q=" + uuid.NewString()
}
