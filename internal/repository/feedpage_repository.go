package repository

import (
	"context"

	"feed-ingest/internal/domain/entity"
)

type FeedPageRepository interface {
	// CreateFromFeedContent stores a page built directly from feed-embedded
	// content, including its content checksum row.
	CreateFromFeedContent(ctx context.Context, page *entity.FeedPage) error
	GetByURL(ctx context.Context, userID, url string) (*entity.FeedPage, error)
}
