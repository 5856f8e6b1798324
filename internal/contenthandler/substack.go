package contenthandler

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var substackPostPattern = regexp.MustCompile(`https?://[^/\s"]+/p/[^\s"?]+`)

// SubstackHandler recognizes substack newsletters and cleans their saved
// pages. It participates in both chains: newsletter detection for inbound
// email and pre-parse cleanup when the post page is extracted.
type SubstackHandler struct {
	BaseHandler
	client *http.Client
}

func NewSubstackHandler(client *http.Client) *SubstackHandler {
	return &SubstackHandler{BaseHandler: NewBaseHandler("substack"), client: client}
}

func (h *SubstackHandler) IsNewsletter(in *EmailInput) bool {
	if strings.Contains(in.From, "@substack.com") {
		return true
	}
	doc, err := in.Doc()
	if err != nil {
		return false
	}
	// Self-hosted substacks keep the post meta block and substack CDN images.
	if doc.Find(".email-post-meta, .post-meta").Length() > 0 &&
		doc.Find(`img[src*="substackcdn.com"], img[src*="substack.com"]`).Length() > 0 {
		return true
	}
	return false
}

func (h *SubstackHandler) FindNewsletterHeaderHref(doc *goquery.Document) string {
	var href string
	doc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !strings.EqualFold(text, "View in browser") && !strings.EqualFold(text, "Read online") {
			return true
		}
		href, _ = sel.Attr("href")
		return href == ""
	})
	return href
}

// ParseNewsletterURL falls back to the first post-shaped link in the body
// when no view-in-browser header link exists.
func (h *SubstackHandler) ParseNewsletterURL(_ context.Context, in *EmailInput) (string, error) {
	return substackPostPattern.FindString(in.HTML), nil
}

func (h *SubstackHandler) ShouldPreParse(_ string, doc *goquery.Document) bool {
	return doc.Find(".available-content, .single-post").Length() > 0
}

func (h *SubstackHandler) PreParse(_ context.Context, _ string, doc *goquery.Document) error {
	doc.Find(".subscribe-widget, .subscription-widget-wrap").Remove()
	doc.Find(".email-ufi-2-bottom, .post-footer, .publication-footer").Remove()
	doc.Find(".preamble, .share-dialog").Remove()

	// Static tweet embeds keep only a blockquote; turn them into plain links
	// so the quoted text and source survive extraction.
	doc.Find("div.tweet, div.static-tweet").Each(func(_ int, sel *goquery.Selection) {
		link, ok := sel.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		quote := strings.TrimSpace(sel.Find("blockquote, .tweet-text").First().Text())
		if quote == "" {
			quote = link
		}
		sel.ReplaceWithHtml(`<blockquote><p>` + quote + `</p><p><a href="` + link + `">` + link + `</a></p></blockquote>`)
	})
	return nil
}
