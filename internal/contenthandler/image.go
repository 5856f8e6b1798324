package contenthandler

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"path"
	"strings"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageHandler wraps a bare image link in a minimal HTML document so the
// extraction step has something to work with.
type ImageHandler struct {
	BaseHandler
}

func NewImageHandler() *ImageHandler {
	return &ImageHandler{BaseHandler: NewBaseHandler("image")}
}

func (h *ImageHandler) ShouldPreHandle(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

func (h *ImageHandler) PreHandle(_ context.Context, rawURL string) (*PreHandleResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	title := path.Base(u.Path)
	escapedTitle := html.EscapeString(title)
	escapedURL := html.EscapeString(rawURL)
	content := fmt.Sprintf(`<html><head>
<title>%s</title>
<meta property="og:image" content="%s" />
<meta property="og:title" content="%s" />
</head><body><article><img src="%s" alt="%s" /></article></body></html>`,
		escapedTitle, escapedURL, escapedTitle, escapedURL, escapedTitle)
	return &PreHandleResult{
		URL:         rawURL,
		Title:       title,
		Content:     content,
		ContentType: "text/html",
	}, nil
}
