package contenthandler

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var morningBrewViewPattern = regexp.MustCompile(`<a[^>]+href="([^"]+)"[^>]*>\s*View Online`)

// MorningBrewHandler handles Morning Brew. The market ticker tables at the
// top render as garbage after extraction, so they are removed up front.
type MorningBrewHandler struct {
	BaseHandler
}

func NewMorningBrewHandler() *MorningBrewHandler {
	return &MorningBrewHandler{BaseHandler: NewBaseHandlerWithURLPattern("morning-brew", morningBrewViewPattern)}
}

func (h *MorningBrewHandler) IsNewsletter(in *EmailInput) bool {
	return strings.Contains(in.From, "@morningbrew.com")
}

func (h *MorningBrewHandler) ShouldPreParse(_ string, doc *goquery.Document) bool {
	return doc.Find(`a[href*="morningbrew.com"]`).Length() > 0 && doc.Find("table.markets-table, #markets").Length() > 0
}

func (h *MorningBrewHandler) PreParse(_ context.Context, _ string, doc *goquery.Document) error {
	doc.Find("table.markets-table, #markets").Remove()
	doc.Find("td.sponsored, table.ad-block").Remove()
	return nil
}
