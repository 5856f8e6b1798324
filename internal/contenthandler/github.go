package contenthandler

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// GitHubHandler isolates the readme or article body on repository pages so
// navigation chrome never leaks into the extracted content.
type GitHubHandler struct {
	BaseHandler
}

func NewGitHubHandler() *GitHubHandler {
	return &GitHubHandler{BaseHandler: NewBaseHandler("github")}
}

func (h *GitHubHandler) ShouldPreParse(rawURL string, _ *goquery.Document) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.TrimPrefix(u.Hostname(), "www.") == "github.com"
}

func (h *GitHubHandler) PreParse(_ context.Context, _ string, doc *goquery.Document) error {
	article := doc.Find("article").First()
	if article.Length() == 0 {
		return nil
	}
	html, err := goquery.OuterHtml(article)
	if err != nil {
		return nil
	}
	doc.Find("body").SetHtml(html)
	return nil
}
