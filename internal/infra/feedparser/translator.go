package feedparser

import (
	"fmt"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/atom"
)

// atomLinkTranslator wraps the default atom translation and replaces each
// item's link with the highest ranked entry link. Atom entries may carry
// several links; rel="via" points at the original article, rel="alternate"
// at the canonical page, while rel="self" is the entry itself and useless as
// an article URL.
type atomLinkTranslator struct {
	defaultTranslator *gofeed.DefaultAtomTranslator
}

func newAtomLinkTranslator() *atomLinkTranslator {
	return &atomLinkTranslator{defaultTranslator: &gofeed.DefaultAtomTranslator{}}
}

func (t *atomLinkTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	atomFeed, ok := feed.(*atom.Feed)
	if !ok {
		return nil, fmt.Errorf("translator: expected atom feed, got %T", feed)
	}

	translated, err := t.defaultTranslator.Translate(feed)
	if err != nil {
		return nil, err
	}

	for i, entry := range atomFeed.Entries {
		if i >= len(translated.Items) || entry == nil {
			break
		}
		if link := bestEntryLink(entry.Links); link != "" {
			translated.Items[i].Link = link
		}
	}
	return translated, nil
}

// bestEntryLink picks the entry link by rel rank: via beats alternate, which
// beats everything else. An unset rel ranks with self, feeds that omit rel
// on the entry link usually mean the entry itself. Ties keep document order.
func bestEntryLink(links []*atom.Link) string {
	best := ""
	bestRank := -1
	for _, link := range links {
		if link == nil || link.Href == "" {
			continue
		}
		if rank := relRank(link.Rel); rank > bestRank {
			best = link.Href
			bestRank = rank
		}
	}
	return best
}

func relRank(rel string) int {
	switch rel {
	case "via":
		return 2
	case "alternate":
		return 1
	default:
		return 0
	}
}
