package contenthandler

import (
	"regexp"
	"strings"
)

var golangWeeklyURLPattern = regexp.MustCompile(`<a[^>]+href="(https?://golangweekly\.com/issues/[^"]+)"`)

// GolangWeeklyHandler handles the Cooperpress weekly issues, whose web
// version link points straight at the issue page.
type GolangWeeklyHandler struct {
	BaseHandler
}

func NewGolangWeeklyHandler() *GolangWeeklyHandler {
	return &GolangWeeklyHandler{BaseHandler: NewBaseHandlerWithURLPattern("golang-weekly", golangWeeklyURLPattern)}
}

func (h *GolangWeeklyHandler) IsNewsletter(in *EmailInput) bool {
	return strings.Contains(in.From, "@golangweekly.com") ||
		strings.Contains(in.From, "@cooperpress.com")
}
