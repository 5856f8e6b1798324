// Package failuretracker gates feed refreshes on a rolling failure count and
// records per-user recently-saved markers for item dedup. Both live in the
// shared cache so state survives worker restarts and is visible across
// replicas.
package failuretracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"feed-ingest/internal/infra/cache"
)

const (
	// DefaultMaxFailures is the failure count above which a feed is blocked.
	DefaultMaxFailures = 10

	failureTTL     = 24 * time.Hour
	recentSavedTTL = 26 * time.Hour
)

// Tracker owns the failure counters and recently-saved markers.
type Tracker struct {
	cache       cache.Cache
	maxFailures int64
	logger      *slog.Logger
}

// New builds a Tracker. maxFailures <= 0 falls back to DefaultMaxFailures.
func New(c cache.Cache, maxFailures int64, logger *slog.Logger) *Tracker {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{cache: c, maxFailures: maxFailures, logger: logger}
}

func failureKey(feedURL string) string {
	return fmt.Sprintf("feeds:fetch-failure:%s", feedURL)
}

func recentSavedKey(userID, itemURL string) string {
	return fmt.Sprintf("feeds:recent-saved-item:%s:%s", userID, itemURL)
}

// IsBlocked reports whether the feed has exceeded its failure budget within
// the counter's TTL window. Cache errors are treated as not blocked so a
// degraded cache never stalls every refresh.
func (t *Tracker) IsBlocked(ctx context.Context, feedURL string) bool {
	val, err := t.cache.Get(ctx, failureKey(feedURL))
	if errors.Is(err, cache.ErrMiss) {
		return false
	}
	if err != nil {
		t.logger.Warn("failure counter lookup failed",
			slog.String("feed_url", feedURL),
			slog.Any("error", err))
		return false
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false
	}
	return count > t.maxFailures
}

// RecordFailure increments the feed's failure counter and resets its 24h
// expiry. The returned count is the new value, 0 when the cache write failed.
func (t *Tracker) RecordFailure(ctx context.Context, feedURL string) int64 {
	key := failureKey(feedURL)
	count, err := t.cache.Increment(ctx, key)
	if err != nil {
		t.logger.Warn("failure counter increment failed",
			slog.String("feed_url", feedURL),
			slog.Any("error", err))
		return 0
	}
	if err := t.cache.Expire(ctx, key, failureTTL); err != nil {
		t.logger.Warn("failure counter expire failed",
			slog.String("feed_url", feedURL),
			slog.Any("error", err))
	}
	return count
}

// WasRecentlySaved reports whether the item URL was saved for the user within
// the dedup window. The window is slightly longer than a day so feeds polled
// hourly cannot resurface yesterday's items at the same wall-clock time.
func (t *Tracker) WasRecentlySaved(ctx context.Context, userID, itemURL string) bool {
	_, err := t.cache.Get(ctx, recentSavedKey(userID, itemURL))
	return err == nil
}

// MarkSaved records that the item URL was just saved for the user.
func (t *Tracker) MarkSaved(ctx context.Context, userID, itemURL string) {
	if err := t.cache.Set(ctx, recentSavedKey(userID, itemURL), "1", recentSavedTTL); err != nil {
		t.logger.Warn("recently-saved marker write failed",
			slog.String("user_id", userID),
			slog.String("item_url", itemURL),
			slog.Any("error", err))
	}
}
