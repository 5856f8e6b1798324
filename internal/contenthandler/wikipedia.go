package contenthandler

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// WikipediaHandler strips edit affordances and the reference apparatus,
// which extraction otherwise keeps as noise.
type WikipediaHandler struct {
	BaseHandler
}

func NewWikipediaHandler() *WikipediaHandler {
	return &WikipediaHandler{BaseHandler: NewBaseHandler("wikipedia")}
}

func (h *WikipediaHandler) ShouldPreParse(rawURL string, _ *goquery.Document) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

func (h *WikipediaHandler) PreParse(_ context.Context, _ string, doc *goquery.Document) error {
	doc.Find(".mw-editsection").Remove()
	doc.Find("ol.references").Remove()
	doc.Find("sup.reference").Remove()
	doc.Find(".navbox, #mw-navigation, .mw-jump-link").Remove()
	return nil
}
