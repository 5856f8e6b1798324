package repository

import (
	"context"
	"time"

	"feed-ingest/internal/domain/entity"
)

type SubscriptionRepository interface {
	Get(ctx context.Context, id string) (*entity.Subscription, error)
	// ListDue returns active subscriptions whose scheduled refresh time has
	// passed, oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*entity.Subscription, error)
	Create(ctx context.Context, sub *entity.Subscription) error
	// UpdateCursor persists the refresh cursor fields of a single
	// subscription: most recent item date, checksum, schedule and failure
	// timestamps.
	UpdateCursor(ctx context.Context, sub *entity.Subscription) error
	Unsubscribe(ctx context.Context, id string) error
}
