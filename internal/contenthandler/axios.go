package contenthandler

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var axiosViewOnlinePattern = regexp.MustCompile(`<a[^>]+href="([^"]+)"[^>]*>\s*View in browser`)

// AxiosHandler handles the Axios family of newsletters.
type AxiosHandler struct {
	BaseHandler
}

func NewAxiosHandler() *AxiosHandler {
	return &AxiosHandler{BaseHandler: NewBaseHandlerWithURLPattern("axios", axiosViewOnlinePattern)}
}

func (h *AxiosHandler) IsNewsletter(in *EmailInput) bool {
	return strings.Contains(in.From, "@axios.com") && in.Header("List-Unsubscribe") != ""
}

func (h *AxiosHandler) ShouldPreParse(_ string, doc *goquery.Document) bool {
	return doc.Find(`a[href*="axios.com"]`).Length() > 0 && doc.Find("table.email-wrapper").Length() > 0
}

func (h *AxiosHandler) PreParse(_ context.Context, _ string, doc *goquery.Document) error {
	doc.Find("table.footer, table.header-social").Remove()
	doc.Find(`td[class*="advertisement"]`).Remove()
	return nil
}
