package db

import (
	"database/sql"
)

func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feed_subscriptions (
    id                    TEXT PRIMARY KEY,
    user_id               TEXT NOT NULL,
    workspace_id          TEXT,
    feed_url              TEXT NOT NULL,
    status                VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
    most_recent_item_date TIMESTAMPTZ,
    last_fetched_checksum TEXT,
    scheduled_at          TIMESTAMPTZ,
    refreshed_at          TIMESTAMPTZ,
    failed_at             TIMESTAMPTZ,
    fetch_content_policy  VARCHAR(20)
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feed_pages (
    id           TEXT PRIMARY KEY,
    user_id      TEXT NOT NULL,
    workspace_id TEXT,
    feed_url     TEXT NOT NULL,
    original_url TEXT NOT NULL,
    title        TEXT,
    description  TEXT,
    author       TEXT,
    thumbnail    TEXT,
    content      TEXT,
    state        VARCHAR(30) NOT NULL DEFAULT 'CONTENT_NOT_FETCHED',
    word_count   INTEGER NOT NULL DEFAULT 0,
    published_at TIMESTAMPTZ,
    saved_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feed_page_checksums (
    page_id  TEXT PRIMARY KEY REFERENCES feed_pages(id) ON DELETE CASCADE,
    checksum TEXT NOT NULL
)`); err != nil {
		return err
	}

	indexes := []string{
		// Sweep query: active subscriptions ordered by scheduled_at
		`CREATE INDEX IF NOT EXISTS idx_feed_subscriptions_due
    ON feed_subscriptions(scheduled_at ASC NULLS FIRST) WHERE status = 'ACTIVE'`,
		// Grouping due subscriptions by feed
		`CREATE INDEX IF NOT EXISTS idx_feed_subscriptions_feed_url ON feed_subscriptions(feed_url)`,
		// Dedup lookup: latest page per (user, original_url)
		`CREATE INDEX IF NOT EXISTS idx_feed_pages_user_url ON feed_pages(user_id, original_url, saved_at DESC)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// Status and policy constraints. PostgreSQL has no IF NOT EXISTS for
	// constraints, so existing ones are detected via pg_constraint and the
	// statement errors are ignored when permissions are missing.
	_, _ = db.Exec(`
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint WHERE conname = 'chk_subscription_status'
    ) THEN
        ALTER TABLE feed_subscriptions ADD CONSTRAINT chk_subscription_status
        CHECK (status IN ('ACTIVE', 'UNSUBSCRIBED'));
    END IF;
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint WHERE conname = 'chk_fetch_content_policy'
    ) THEN
        ALTER TABLE feed_subscriptions ADD CONSTRAINT chk_fetch_content_policy
        CHECK (fetch_content_policy IS NULL
               OR fetch_content_policy IN ('ALWAYS', 'WHEN_EMPTY', 'NEVER'));
    END IF;
END $$;
`)

	return nil
}

// MigrateDown rolls back the database schema.
// Use with caution: this will delete all subscription and page data.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS feed_page_checksums`,
		`DROP TABLE IF EXISTS feed_pages`,
		`DROP TABLE IF EXISTS feed_subscriptions`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
