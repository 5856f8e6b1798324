package entity

import (
	"errors"
	"fmt"
	"time"
)

// SubscriptionStatus is the lifecycle state of a user's feed subscription.
// Unsubscribing flips the status instead of deleting the row so that a
// re-subscribe keeps the cursor history.
type SubscriptionStatus string

const (
	SubscriptionActive       SubscriptionStatus = "ACTIVE"
	SubscriptionUnsubscribed SubscriptionStatus = "UNSUBSCRIBED"
)

// FetchContentPolicy controls whether the full article body is fetched for
// items of a subscription or the feed-embedded content is used as-is.
type FetchContentPolicy string

const (
	// FetchContentAlways fetches the full article body for every item.
	FetchContentAlways FetchContentPolicy = "ALWAYS"
	// FetchContentWhenEmpty fetches only when the feed carries no content.
	FetchContentWhenEmpty FetchContentPolicy = "WHEN_EMPTY"
	// FetchContentNever always uses the feed-embedded content.
	FetchContentNever FetchContentPolicy = "NEVER"
)

// Subscription is one user's (and workspace's) following of a feed, together
// with its refresh cursor. The cursor fields are mutated once per refresh
// cycle and nowhere else.
type Subscription struct {
	ID          string             `json:"id"`
	UserID      string             `json:"userId"`
	WorkspaceID string             `json:"workspaceId"`
	FeedURL     string             `json:"feedUrl"`
	Status      SubscriptionStatus `json:"status"`

	// MostRecentItemDate is the publish date of the newest item ever
	// processed for this subscription. Zero means the subscription has
	// never been fetched. Monotonically non-decreasing.
	MostRecentItemDate time.Time `json:"mostRecentItemDate"`

	// LastFetchedChecksum is the checksum of the feed bytes seen on the
	// last successful refresh. Changes only when the bytes changed.
	LastFetchedChecksum string `json:"lastFetchedChecksum"`

	ScheduledAt time.Time  `json:"scheduledAt"`
	RefreshedAt time.Time  `json:"refreshedAt"`
	FailedAt    *time.Time `json:"failedAt,omitempty"`

	FetchContentPolicy FetchContentPolicy `json:"fetchContentPolicy"`
}

// NeverFetched reports whether this subscription has processed any item yet.
func (s *Subscription) NeverFetched() bool {
	return s.MostRecentItemDate.IsZero()
}

// Validate checks the subscription fields that the refresh pipeline relies on.
func (s *Subscription) Validate() error {
	if s.ID == "" || s.UserID == "" || s.WorkspaceID == "" {
		return errors.New("subscription id, user id and workspace id are required")
	}
	if s.FeedURL == "" {
		return errors.New("subscription feed url is required")
	}
	switch s.FetchContentPolicy {
	case FetchContentAlways, FetchContentWhenEmpty, FetchContentNever, "":
	default:
		return fmt.Errorf("invalid fetch content policy: %s", s.FetchContentPolicy)
	}
	return nil
}

// EffectivePolicy returns the fetch policy with the empty value defaulted.
func (s *Subscription) EffectivePolicy() FetchContentPolicy {
	if s.FetchContentPolicy == "" {
		return FetchContentAlways
	}
	return s.FetchContentPolicy
}
