package entity

import "time"

// FeedSource represents the metadata of a syndication feed as seen during one
// fetch cycle. It is rebuilt from the parsed bytes on every refresh and never
// mutated afterwards.
type FeedSource struct {
	URL             string
	Title           string
	Description     string
	IconURL         string
	LastBuildDate   *time.Time
	UpdatePeriod    string // hourly, daily, weekly, monthly, yearly ("" = hourly)
	UpdateFrequency int    // feed-reported multiplier (0 = 1)
}

// FeedItem is a normalized entry of a feed. Link has already been selected
// from the ranked candidate set, converted to absolute form and validated;
// an item that could not produce a valid link never becomes a FeedItem.
type FeedItem struct {
	GUID         string
	Link         string
	Title        string
	Author       string
	PublishedAt  *time.Time
	Summary      string
	Content      string // full content embedded in the feed, if any
	ThumbnailURL string
}

// EmbeddedContent returns the best available content carried by the feed
// itself: full content first, then the summary snippet.
func (i *FeedItem) EmbeddedContent() string {
	if i.Content != "" {
		return i.Content
	}
	return i.Summary
}

// PublishedOrNow returns the item publish date, falling back to now for items
// that carry no date.
func (i *FeedItem) PublishedOrNow() time.Time {
	if i.PublishedAt != nil {
		return *i.PublishedAt
	}
	return time.Now()
}
