package contenthandler

import (
	"context"
	"net/url"
	"strings"
)

// PDFHandler short-circuits fetching for PDF links. PDFs are stored as-is
// and never go through HTML extraction.
type PDFHandler struct {
	BaseHandler
}

func NewPDFHandler() *PDFHandler {
	return &PDFHandler{BaseHandler: NewBaseHandler("pdf")}
}

func (h *PDFHandler) ShouldPreHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

func (h *PDFHandler) PreHandle(_ context.Context, rawURL string) (*PreHandleResult, error) {
	return &PreHandleResult{URL: rawURL, ContentType: "application/pdf"}, nil
}
