package contenthandler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ConvertKitHandler handles ConvertKit-delivered newsletters, identified by
// their click-tracking domain.
type ConvertKitHandler struct {
	BaseHandler
}

func NewConvertKitHandler() *ConvertKitHandler {
	return &ConvertKitHandler{BaseHandler: NewBaseHandler("convertkit")}
}

func (h *ConvertKitHandler) IsNewsletter(in *EmailInput) bool {
	return strings.Contains(in.HTML, "convertkit-mail")
}

// FindNewsletterHeaderHref returns the first tracked link that is not a
// subscription confirmation.
func (h *ConvertKitHandler) FindNewsletterHeaderHref(doc *goquery.Document) string {
	var href string
	doc.Find(`a[href*="convertkit-mail"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		candidate, _ := sel.Attr("href")
		text := strings.ToLower(sel.Text())
		if strings.Contains(text, "confirm") || strings.Contains(candidate, "confirm") {
			return true
		}
		href = candidate
		return false
	})
	return href
}
