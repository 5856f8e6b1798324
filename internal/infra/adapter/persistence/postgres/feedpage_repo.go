package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feed-ingest/internal/domain/entity"
	obsmetrics "feed-ingest/internal/observability/metrics"
	"feed-ingest/internal/repository"
)

type FeedPageRepo struct{ db DB }

func NewFeedPageRepo(db DB) repository.FeedPageRepository {
	return &FeedPageRepo{db: db}
}

func (repo *FeedPageRepo) CreateFromFeedContent(ctx context.Context, page *entity.FeedPage) error {
	start := time.Now()
	defer func() { obsmetrics.RecordDBQuery("create_feed_page", time.Since(start)) }()
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("CreateFromFeedContent: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const pageQuery = `
INSERT INTO feed_pages
  (id, user_id, workspace_id, feed_url, original_url, title, description,
   author, thumbnail, content, state, word_count, published_at, saved_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := tx.ExecContext(ctx, pageQuery,
		page.ID, page.UserID, page.WorkspaceID, page.FeedURL, page.OriginalURL,
		page.Title, page.Description, page.Author, page.Thumbnail, page.Content,
		page.State, page.WordCount, page.PublishedAt, page.SavedAt,
	); err != nil {
		return fmt.Errorf("CreateFromFeedContent: %w", err)
	}

	// The checksum row lets a later refresh cycle detect unchanged embedded
	// content without comparing bodies.
	const checksumQuery = `
INSERT INTO feed_page_checksums (page_id, checksum)
VALUES ($1, $2)
ON CONFLICT (page_id) DO UPDATE SET checksum = EXCLUDED.checksum`
	if _, err := tx.ExecContext(ctx, checksumQuery, page.ID, page.ContentChecksum); err != nil {
		return fmt.Errorf("CreateFromFeedContent: checksum: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("CreateFromFeedContent: commit: %w", err)
	}
	return nil
}

func (repo *FeedPageRepo) GetByURL(ctx context.Context, userID, url string) (*entity.FeedPage, error) {
	const query = `
SELECT p.id, p.user_id, p.workspace_id, p.feed_url, p.original_url, p.title,
       p.description, p.author, p.thumbnail, p.content, p.state, p.word_count,
       p.published_at, p.saved_at, COALESCE(c.checksum, '')
FROM feed_pages p
LEFT JOIN feed_page_checksums c ON c.page_id = p.id
WHERE p.user_id = $1 AND p.original_url = $2
ORDER BY p.saved_at DESC
LIMIT 1`
	var page entity.FeedPage
	var publishedAt sql.NullTime
	err := repo.db.QueryRowContext(ctx, query, userID, url).Scan(
		&page.ID, &page.UserID, &page.WorkspaceID, &page.FeedURL, &page.OriginalURL,
		&page.Title, &page.Description, &page.Author, &page.Thumbnail, &page.Content,
		&page.State, &page.WordCount, &publishedAt, &page.SavedAt, &page.ContentChecksum,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByURL: %w", err)
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		page.PublishedAt = &t
	}
	return &page, nil
}
