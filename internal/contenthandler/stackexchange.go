package contenthandler

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StackExchangeHandler trims Q&A pages to the question and its accepted
// answer. Sidebars, comment threads and the unaccepted answer pile drown the
// signal otherwise.
type StackExchangeHandler struct {
	BaseHandler
}

func NewStackExchangeHandler() *StackExchangeHandler {
	return &StackExchangeHandler{BaseHandler: NewBaseHandler("stack-exchange")}
}

func (h *StackExchangeHandler) ShouldPreParse(rawURL string, _ *goquery.Document) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host == "stackoverflow.com" ||
		host == "superuser.com" ||
		host == "serverfault.com" ||
		strings.HasSuffix(host, ".stackexchange.com")
}

func (h *StackExchangeHandler) PreParse(_ context.Context, _ string, doc *goquery.Document) error {
	doc.Find("#left-sidebar, #sidebar, .js-consent-banner, .top-bar").Remove()
	doc.Find(".comments, .bottom-notice, .new-answer").Remove()
	doc.Find(".answer").NotFunction(func(_ int, sel *goquery.Selection) bool {
		return sel.HasClass("accepted-answer")
	}).Remove()
	return nil
}
