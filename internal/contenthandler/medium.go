package contenthandler

import (
	"context"
	"net/url"
	"strings"
)

// MediumHandler strips the tracking "source" parameter medium appends to
// article links, which otherwise splits one article into many page keys.
type MediumHandler struct {
	BaseHandler
}

func NewMediumHandler() *MediumHandler {
	return &MediumHandler{BaseHandler: NewBaseHandler("medium")}
}

func (h *MediumHandler) ShouldResolve(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	return host == "medium.com" || strings.HasSuffix(host, ".medium.com")
}

func (h *MediumHandler) Resolve(_ context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, nil
	}
	q := u.Query()
	q.Del("source")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
