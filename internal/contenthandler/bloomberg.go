package contenthandler

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var bloombergViewPattern = regexp.MustCompile(`<a[^>]+href="([^"]+)"[^>]*>\s*View in browser`)

// BloombergHandler handles Bloomberg's email newsletters.
type BloombergHandler struct {
	BaseHandler
}

func NewBloombergHandler() *BloombergHandler {
	return &BloombergHandler{BaseHandler: NewBaseHandlerWithURLPattern("bloomberg", bloombergViewPattern)}
}

func (h *BloombergHandler) IsNewsletter(in *EmailInput) bool {
	return strings.Contains(in.From, "@news.bloomberg.com") ||
		strings.Contains(in.From, "@mail.bloombergbusiness.com")
}

func (h *BloombergHandler) ShouldPreParse(_ string, doc *goquery.Document) bool {
	return doc.Find(`table[class*="bloomberg"], img[src*="bloomberg.com"]`).Length() > 0
}

func (h *BloombergHandler) PreParse(_ context.Context, _ string, doc *goquery.Document) error {
	// The body sits inside nested layout tables; unwrap the innermost one so
	// extraction sees paragraphs instead of table cells.
	doc.Find("table.paywall-wrapper, table.promo, table.subscribe-cta").Remove()
	doc.Find("td.preheader, td.footer").Remove()
	return nil
}
