package entity

import "time"

// FeedPageState tracks whether a page created from a feed item still awaits a
// full content fetch.
type FeedPageState string

const (
	PageContentNotFetched FeedPageState = "CONTENT_NOT_FETCHED"
	PageContentFetched    FeedPageState = "CONTENT_FETCHED"
)

// FeedPage is the lightweight page created directly from feed-embedded
// content when a subscription's fetch policy skips the full content fetch.
type FeedPage struct {
	ID              string
	UserID          string
	WorkspaceID     string
	FeedURL         string
	OriginalURL     string
	Title           string
	Description     string
	Author          string
	Thumbnail       string
	Content         string
	ContentChecksum string
	State           FeedPageState
	WordCount       int
	PublishedAt     *time.Time
	SavedAt         time.Time
}
