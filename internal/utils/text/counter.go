// Package text provides text analysis helpers shared by the refresh and save
// pipelines.
package text

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CountWords counts whitespace-separated words in plain text. Used for the
// word count stored on pages created directly from feed content.
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// CountWordsHTML counts the words of the visible text in an HTML fragment.
// Unparsable markup counts as zero rather than failing the caller.
func CountWordsHTML(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	return CountWords(doc.Text())
}
