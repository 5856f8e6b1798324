package contenthandler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// TCoHandler resolves twitter's t.co shortener to the target URL so pages
// are keyed by their real location.
type TCoHandler struct {
	BaseHandler
	client *http.Client
}

func NewTCoHandler(client *http.Client) *TCoHandler {
	return &TCoHandler{BaseHandler: NewBaseHandler("t.co"), client: client}
}

func (h *TCoHandler) ShouldResolve(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Hostname() == "t.co"
}

func (h *TCoHandler) Resolve(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("t.co resolve: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("t.co resolve: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.Request == nil || resp.Request.URL == nil {
		return rawURL, nil
	}
	return resp.Request.URL.String(), nil
}
