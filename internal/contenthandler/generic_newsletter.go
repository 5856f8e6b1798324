package contenthandler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// viewInBrowserPattern matches the anchor text newsletters use for their web
// version link, including the common French variant.
var viewInBrowserPattern = regexp.MustCompile(`(?i)((View|Read)(.*)(email|post)?(.*)(in your browser|online|on (FS|the Web))|Lire en ligne)`)

// GenericNewsletterHandler is the chain's catch-all. It claims any email
// carrying standard mailing list headers or a recognizable web version link.
// Must stay last in the newsletter chain.
type GenericNewsletterHandler struct {
	BaseHandler
}

func NewGenericNewsletterHandler() *GenericNewsletterHandler {
	return &GenericNewsletterHandler{BaseHandler: NewBaseHandler("generic-newsletter")}
}

func (h *GenericNewsletterHandler) IsNewsletter(in *EmailInput) bool {
	if in.Header("List-Post") != "" || in.Header("List-Id") != "" || in.Header("List-Unsubscribe") != "" {
		return true
	}
	doc, err := in.Doc()
	if err != nil {
		return false
	}
	return h.FindNewsletterHeaderHref(doc) != ""
}

func (h *GenericNewsletterHandler) FindNewsletterHeaderHref(doc *goquery.Document) string {
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !viewInBrowserPattern.MatchString(strings.TrimSpace(sel.Text())) {
			return true
		}
		href, _ = sel.Attr("href")
		return href == ""
	})
	return href
}
