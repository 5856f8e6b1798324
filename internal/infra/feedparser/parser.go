// Package feedparser turns raw feed documents into domain feed sources and
// items. It normalizes RSS, Atom and JSON feeds into one shape, resolves
// relative item links against the feed URL and drops items whose links fail
// validation.
package feedparser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/utils/urlutil"

	"github.com/mmcdole/gofeed"
)

// Parser parses feed documents. Safe for concurrent use.
type Parser struct {
	fp *gofeed.Parser
}

// NewParser builds a Parser with atom link ranking installed.
func NewParser() *Parser {
	fp := gofeed.NewParser()
	fp.AtomTranslator = newAtomLinkTranslator()
	return &Parser{fp: fp}
}

// Parse parses the raw feed document fetched from feedURL. The returned
// source carries the feed metadata used for scheduling; items are in document
// order with absolute, validated links.
func (p *Parser) Parse(body []byte, feedURL string) (*entity.FeedSource, []entity.FeedItem, error) {
	feed, err := p.fp.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	source := &entity.FeedSource{
		URL:           feedURL,
		Title:         strings.TrimSpace(feed.Title),
		Description:   strings.TrimSpace(feed.Description),
		LastBuildDate: feed.UpdatedParsed,
	}
	if feed.Image != nil {
		source.IconURL = feed.Image.URL
	}
	source.UpdatePeriod, source.UpdateFrequency = syndicationHints(feed)

	items := make([]entity.FeedItem, 0, len(feed.Items))
	for _, raw := range feed.Items {
		item, ok := p.toItem(raw, feedURL)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return source, items, nil
}

// toItem maps one gofeed item onto the domain shape. Items without a usable
// absolute http(s) link are dropped, there is nothing to save for them.
func (p *Parser) toItem(raw *gofeed.Item, feedURL string) (entity.FeedItem, bool) {
	link := urlutil.Absolutize(raw.Link, feedURL)
	if link == "" || urlutil.Validate(link) != nil {
		// Some feeds put the article URL in the guid instead.
		if urlutil.Validate(raw.GUID) != nil {
			return entity.FeedItem{}, false
		}
		link = raw.GUID
	}

	item := entity.FeedItem{
		GUID:         raw.GUID,
		Link:         link,
		Title:        strings.TrimSpace(raw.Title),
		Author:       itemAuthor(raw),
		Summary:      raw.Description,
		Content:      raw.Content,
		ThumbnailURL: itemThumbnail(raw),
	}
	if item.GUID == "" {
		item.GUID = link
	}
	item.PublishedAt = publishedAt(raw)
	return item, true
}

// publishedAt prefers the publication date and falls back to the update date.
// Dates in the future are untrusted and treated as absent.
func publishedAt(raw *gofeed.Item) *time.Time {
	ts := raw.PublishedParsed
	if ts == nil {
		ts = raw.UpdatedParsed
	}
	if ts == nil || ts.After(time.Now().Add(24*time.Hour)) {
		return nil
	}
	return ts
}

func itemAuthor(raw *gofeed.Item) string {
	if len(raw.Authors) > 0 && raw.Authors[0] != nil {
		return strings.TrimSpace(raw.Authors[0].Name)
	}
	if raw.Author != nil {
		return strings.TrimSpace(raw.Author.Name)
	}
	return ""
}

// itemThumbnail looks for an item image in, order of preference, the item
// image element, media:thumbnail and image-typed media:content.
func itemThumbnail(raw *gofeed.Item) string {
	if raw.Image != nil && raw.Image.URL != "" {
		return raw.Image.URL
	}

	media, ok := raw.Extensions["media"]
	if !ok {
		return ""
	}
	for _, thumb := range media["thumbnail"] {
		if url := thumb.Attrs["url"]; url != "" {
			return url
		}
	}
	for _, content := range media["content"] {
		if content.Attrs["medium"] == "image" && content.Attrs["url"] != "" {
			return content.Attrs["url"]
		}
	}
	return ""
}

// syndicationHints reads the RSS syndication module elements that advertise
// how often a feed updates. Both the common "sy" prefix and the older "syn"
// prefix appear in the wild.
func syndicationHints(feed *gofeed.Feed) (period string, frequency int) {
	for _, prefix := range []string{"sy", "syn"} {
		ext, ok := feed.Extensions[prefix]
		if !ok {
			continue
		}
		if vals := ext["updatePeriod"]; len(vals) > 0 {
			period = strings.ToLower(strings.TrimSpace(vals[0].Value))
		}
		if vals := ext["updateFrequency"]; len(vals) > 0 {
			if n, err := strconv.Atoi(strings.TrimSpace(vals[0].Value)); err == nil {
				frequency = n
			}
		}
		if period != "" || frequency != 0 {
			break
		}
	}
	return period, frequency
}
