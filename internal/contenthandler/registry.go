package contenthandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotNewsletter is returned when no newsletter handler claims an email.
var ErrNotNewsletter = errors.New("contenthandler: not a newsletter")

// Registry holds the two handler chains. Order matters: specific handlers
// come first, catch-alls last, and only the first matching handler runs at
// each stage.
type Registry struct {
	content     []Handler
	newsletters []Handler
	preParse    []Handler
	client      *http.Client
	logger      *slog.Logger
}

// NewRegistry builds the registry with the full built-in handler set.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	client := &http.Client{Timeout: 30 * time.Second}

	r := &Registry{
		client: client,
		logger: logger,
		content: []Handler{
			NewTCoHandler(client),
			NewMediumHandler(),
			NewPDFHandler(),
			NewImageHandler(),
			NewYouTubeHandler(client),
			NewAppleNewsHandler(client),
			NewGitHubHandler(),
			NewWikipediaHandler(),
			NewStackExchangeHandler(),
			NewSubstackHandler(client),
		},
		newsletters: []Handler{
			NewAxiosHandler(),
			NewBloombergHandler(),
			NewGolangWeeklyHandler(),
			NewMorningBrewHandler(),
			NewBeehiivHandler(),
			NewConvertKitHandler(),
			NewGhostHandler(),
			NewSubstackHandler(client),
			NewGenericNewsletterHandler(),
		},
	}
	r.preParse = make([]Handler, 0, len(r.content)+len(r.newsletters))
	r.preParse = append(append(r.preParse, r.content...), r.newsletters...)
	return r
}

// PreHandle runs the resolve stage and then the pre-handle stage for a URL.
// Both stages are first-match-wins. When no handler produces content, the
// returned result carries only the (possibly rewritten) URL and the caller
// fetches it generically.
func (r *Registry) PreHandle(ctx context.Context, url string) (*PreHandleResult, error) {
	resolved := url
	for _, h := range r.content {
		if !h.ShouldResolve(resolved) {
			continue
		}
		out, err := h.Resolve(ctx, resolved)
		if err != nil {
			r.logger.Warn("url resolve failed",
				slog.String("handler", h.Name()),
				slog.String("url", resolved),
				slog.Any("error", err))
			break
		}
		r.logger.Debug("url resolved",
			slog.String("handler", h.Name()),
			slog.String("url", out))
		resolved = out
		break
	}

	for _, h := range r.content {
		if !h.ShouldPreHandle(resolved) {
			continue
		}
		result, err := h.PreHandle(ctx, resolved)
		if errors.Is(err, ErrNotHandled) {
			break
		}
		if err != nil {
			return nil, err
		}
		if result.URL == "" {
			result.URL = resolved
		}
		return result, nil
	}

	return &PreHandleResult{URL: resolved}, nil
}

// PreParse gives the first matching handler a chance to clean the DOM before
// generic extraction. Newsletter handlers participate too, their cleanups
// apply when a saved newsletter page is re-parsed.
func (r *Registry) PreParse(ctx context.Context, url string, doc *goquery.Document) error {
	for _, h := range r.preParse {
		if !h.ShouldPreParse(url, doc) {
			continue
		}
		if err := h.PreParse(ctx, url, doc); err != nil {
			return err
		}
		r.logger.Debug("dom pre-parsed", slog.String("handler", h.Name()), slog.String("url", url))
		return nil
	}
	return nil
}

// GetNewsletterHandler returns the first newsletter handler claiming the
// email, or nil.
func (r *Registry) GetNewsletterHandler(in *EmailInput) Handler {
	for _, h := range r.newsletters {
		if h.IsNewsletter(in) {
			return h
		}
	}
	return nil
}

// HandleNewsletter converts a newsletter email into a saveable page. The
// claiming handler may take over entirely; otherwise the pieces it exposes
// (header href, URL pattern, author, unsubscribe) feed the generic assembly.
func (r *Registry) HandleNewsletter(ctx context.Context, in *EmailInput) (*Newsletter, error) {
	h := r.GetNewsletterHandler(in)
	if h == nil {
		return nil, ErrNotNewsletter
	}

	if nl, err := h.HandleNewsletter(ctx, in); err == nil {
		return nl, nil
	} else if !errors.Is(err, ErrNotHandled) {
		return nil, err
	}

	var pageURL string
	if doc, err := in.Doc(); err == nil {
		if href := h.FindNewsletterHeaderHref(doc); href != "" {
			pageURL = r.followRedirect(ctx, href)
		}
	}
	if pageURL == "" {
		var err error
		pageURL, err = h.ParseNewsletterURL(ctx, in)
		if err != nil {
			r.logger.Warn("newsletter url parse failed",
				slog.String("handler", h.Name()),
				slog.Any("error", err))
		}
	}
	if pageURL == "" {
		pageURL = FallbackNewsletterURL()
	}

	return &Newsletter{
		Email:       in.From,
		Title:       in.Subject,
		Author:      h.ParseAuthor(in.From),
		URL:         pageURL,
		Content:     in.HTML,
		Unsubscribe: h.ParseUnsubscribe(in.Header("List-Unsubscribe")),
	}, nil
}

// followRedirect resolves a tracking href to its final location. Failures
// fall back to the href itself, a tracked URL beats no URL.
func (r *Registry) followRedirect(ctx context.Context, href string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, href, nil)
	if err != nil {
		return href
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return href
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	return href
}
