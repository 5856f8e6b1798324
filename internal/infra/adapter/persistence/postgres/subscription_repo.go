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

type SubscriptionRepo struct{ db DB }

func NewSubscriptionRepo(db DB) repository.SubscriptionRepository {
	return &SubscriptionRepo{db: db}
}

const subscriptionColumns = `
id, user_id, workspace_id, feed_url, status,
most_recent_item_date, last_fetched_checksum,
scheduled_at, refreshed_at, failed_at, fetch_content_policy`

// scanSubscription maps one row onto the entity, normalizing NULL cursor
// columns to zero values.
func scanSubscription(scan func(dest ...any) error) (*entity.Subscription, error) {
	var sub entity.Subscription
	var mostRecent, scheduledAt, refreshedAt, failedAt sql.NullTime
	var checksum, policy sql.NullString
	if err := scan(
		&sub.ID, &sub.UserID, &sub.WorkspaceID, &sub.FeedURL, &sub.Status,
		&mostRecent, &checksum,
		&scheduledAt, &refreshedAt, &failedAt, &policy,
	); err != nil {
		return nil, err
	}
	if mostRecent.Valid {
		sub.MostRecentItemDate = mostRecent.Time
	}
	if scheduledAt.Valid {
		sub.ScheduledAt = scheduledAt.Time
	}
	if refreshedAt.Valid {
		sub.RefreshedAt = refreshedAt.Time
	}
	if failedAt.Valid {
		t := failedAt.Time
		sub.FailedAt = &t
	}
	sub.LastFetchedChecksum = checksum.String
	sub.FetchContentPolicy = entity.FetchContentPolicy(policy.String)
	return &sub, nil
}

func (repo *SubscriptionRepo) Get(ctx context.Context, id string) (*entity.Subscription, error) {
	const query = `
SELECT ` + subscriptionColumns + `
FROM feed_subscriptions
WHERE id = $1
LIMIT 1`
	row := repo.db.QueryRowContext(ctx, query, id)
	sub, err := scanSubscription(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return sub, nil
}

func (repo *SubscriptionRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*entity.Subscription, error) {
	start := time.Now()
	defer func() { obsmetrics.RecordDBQuery("list_due_subscriptions", time.Since(start)) }()
	const query = `
SELECT ` + subscriptionColumns + `
FROM feed_subscriptions
WHERE status = $1
  AND (scheduled_at IS NULL OR scheduled_at <= $2)
ORDER BY scheduled_at ASC NULLS FIRST
LIMIT $3`
	rows, err := repo.db.QueryContext(ctx, query, entity.SubscriptionActive, now, limit)
	if err != nil {
		return nil, fmt.Errorf("ListDue: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subs := make([]*entity.Subscription, 0, limit)
	for rows.Next() {
		sub, err := scanSubscription(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ListDue: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (repo *SubscriptionRepo) Create(ctx context.Context, sub *entity.Subscription) error {
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	if sub.Status == "" {
		sub.Status = entity.SubscriptionActive
	}
	const query = `
INSERT INTO feed_subscriptions
  (id, user_id, workspace_id, feed_url, status,
   most_recent_item_date, last_fetched_checksum,
   scheduled_at, refreshed_at, failed_at, fetch_content_policy)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.WorkspaceID, sub.FeedURL, sub.Status,
		nullTime(sub.MostRecentItemDate), nullString(sub.LastFetchedChecksum),
		nullTime(sub.ScheduledAt), nullTime(sub.RefreshedAt), sub.FailedAt,
		nullString(string(sub.EffectivePolicy())),
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SubscriptionRepo) UpdateCursor(ctx context.Context, sub *entity.Subscription) error {
	start := time.Now()
	defer func() { obsmetrics.RecordDBQuery("update_cursor", time.Since(start)) }()
	const query = `
UPDATE feed_subscriptions SET
       most_recent_item_date = $1,
       last_fetched_checksum = $2,
       scheduled_at          = $3,
       refreshed_at          = $4,
       failed_at             = $5
WHERE id = $6`
	res, err := repo.db.ExecContext(ctx, query,
		nullTime(sub.MostRecentItemDate), nullString(sub.LastFetchedChecksum),
		nullTime(sub.ScheduledAt), nullTime(sub.RefreshedAt), sub.FailedAt,
		sub.ID,
	)
	if err != nil {
		return fmt.Errorf("UpdateCursor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UpdateCursor: no rows affected")
	}
	return nil
}

func (repo *SubscriptionRepo) Unsubscribe(ctx context.Context, id string) error {
	const query = `UPDATE feed_subscriptions SET status = $1 WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, entity.SubscriptionUnsubscribed, id)
	if err != nil {
		return fmt.Errorf("Unsubscribe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Unsubscribe: no rows affected")
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
