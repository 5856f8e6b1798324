package contenthandler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BeehiivHandler handles beehiiv-hosted newsletters, which announce
// themselves with a dedicated header.
type BeehiivHandler struct {
	BaseHandler
}

func NewBeehiivHandler() *BeehiivHandler {
	return &BeehiivHandler{BaseHandler: NewBaseHandler("beehiiv")}
}

func (h *BeehiivHandler) IsNewsletter(in *EmailInput) bool {
	return strings.EqualFold(in.Header("X-Beehiiv-Type"), "newsletter") ||
		strings.Contains(in.From, "@mail.beehiiv.com")
}

func (h *BeehiivHandler) FindNewsletterHeaderHref(doc *goquery.Document) string {
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		candidate, _ := sel.Attr("href")
		if !strings.Contains(candidate, "beehiiv.com/p/") {
			return true
		}
		href = candidate
		return false
	})
	return href
}
