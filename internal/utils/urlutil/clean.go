package urlutil

import (
	"net/url"
	"regexp"
	"strings"
)

// tweetURLPattern matches twitter status links, which carry extra share
// tracking parameters beyond the usual utm_ set.
var tweetURLPattern = regexp.MustCompile(`twitter\.com/(?:#!/)?(\w+)/status(?:es)?/(\d+)`)

var utmParamPattern = regexp.MustCompile(`(?i)^utm_\w+`)

// Clean normalizes an article URL for use as a dedup and batching key:
// tracking query parameters are stripped, the fragment is dropped, and the
// remainder of the URL (including www and any trailing slash) is preserved.
func Clean(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}

	stripShareParams := tweetURLPattern.MatchString(urlStr)

	query := u.Query()
	for key := range query {
		if utmParamPattern.MatchString(key) {
			query.Del(key)
			continue
		}
		if stripShareParams && (key == "s" || key == "t") {
			query.Del(key)
		}
	}
	u.RawQuery = query.Encode()
	u.Fragment = ""

	return strings.TrimSpace(u.String())
}

// Absolutize resolves a possibly relative href against a base URL and returns
// the absolute form, or "" when either part is unparsable.
func Absolutize(href, base string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}
