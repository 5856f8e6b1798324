package contenthandler

import (
	"github.com/PuerkitoBio/goquery"
)

// GhostHandler handles Ghost-hosted newsletters, which tag their web version
// anchor with a stable class.
type GhostHandler struct {
	BaseHandler
}

func NewGhostHandler() *GhostHandler {
	return &GhostHandler{BaseHandler: NewBaseHandler("ghost")}
}

func (h *GhostHandler) IsNewsletter(in *EmailInput) bool {
	doc, err := in.Doc()
	if err != nil {
		return false
	}
	return doc.Find("a.view-online-link").Length() > 0
}

func (h *GhostHandler) FindNewsletterHeaderHref(doc *goquery.Document) string {
	href, _ := doc.Find("a.view-online-link").First().Attr("href")
	return href
}
