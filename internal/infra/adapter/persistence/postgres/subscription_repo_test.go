package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/adapter/persistence/postgres"
	obsmetrics "feed-ingest/internal/observability/metrics"
)

func subscriptionRow(sub *entity.Subscription) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "workspace_id", "feed_url", "status",
		"most_recent_item_date", "last_fetched_checksum",
		"scheduled_at", "refreshed_at", "failed_at", "fetch_content_policy",
	})
	var failedAt interface{}
	if sub.FailedAt != nil {
		failedAt = *sub.FailedAt
	}
	rows.AddRow(
		sub.ID, sub.UserID, sub.WorkspaceID, sub.FeedURL, string(sub.Status),
		sub.MostRecentItemDate, sub.LastFetchedChecksum,
		sub.ScheduledAt, sub.RefreshedAt, failedAt, string(sub.FetchContentPolicy),
	)
	return rows
}

func TestSubscriptionRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	want := &entity.Subscription{
		ID: "sub-1", UserID: "user-1", WorkspaceID: "ws-1",
		FeedURL: "https://example.com/feed.xml",
		Status:  entity.SubscriptionActive,
		MostRecentItemDate:  now.Add(-time.Hour),
		LastFetchedChecksum: "abc123",
		ScheduledAt:         now.Add(time.Hour),
		RefreshedAt:         now,
		FetchContentPolicy:  entity.FetchContentAlways,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("sub-1").
		WillReturnRows(subscriptionRow(want))

	repo := postgres.NewSubscriptionRepo(db)
	got, err := repo.Get(context.Background(), "sub-1")
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSubscriptionRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "workspace_id", "feed_url", "status",
			"most_recent_item_date", "last_fetched_checksum",
			"scheduled_at", "refreshed_at", "failed_at", "fetch_content_policy",
		}))

	repo := postgres.NewSubscriptionRepo(db)
	got, err := repo.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing row, got %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSubscriptionRepo_ListDue(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	due := &entity.Subscription{
		ID: "sub-1", UserID: "user-1", WorkspaceID: "ws-1",
		FeedURL:            "https://example.com/feed.xml",
		Status:             entity.SubscriptionActive,
		ScheduledAt:        now.Add(-time.Minute),
		FetchContentPolicy: entity.FetchContentAlways,
	}

	mock.ExpectQuery(`FROM feed_subscriptions`).
		WithArgs(string(entity.SubscriptionActive), now, 50).
		WillReturnRows(subscriptionRow(due))

	repo := postgres.NewSubscriptionRepo(db)
	got, err := repo.ListDue(context.Background(), now, 50)
	if err != nil || len(got) != 1 {
		t.Fatalf("ListDue err=%v len=%d", err, len(got))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
	if n := testutil.CollectAndCount(obsmetrics.DBQueryDuration); n < 1 {
		t.Errorf("expected a query duration series after ListDue, got %d", n)
	}
}

func TestSubscriptionRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO feed_subscriptions`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewSubscriptionRepo(db)
	err := repo.Create(context.Background(), &entity.Subscription{
		ID: "sub-1", UserID: "user-1", WorkspaceID: "ws-1",
		FeedURL: "https://example.com/feed.xml",
	})
	if err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSubscriptionRepo_Create_Invalid(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := postgres.NewSubscriptionRepo(db)
	err := repo.Create(context.Background(), &entity.Subscription{ID: "sub-1"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSubscriptionRepo_UpdateCursor(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE feed_subscriptions SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewSubscriptionRepo(db)
	err := repo.UpdateCursor(context.Background(), &entity.Subscription{
		ID:                  "sub-1",
		MostRecentItemDate:  time.Now(),
		LastFetchedChecksum: "abc123",
		ScheduledAt:         time.Now().Add(time.Hour),
		RefreshedAt:         time.Now(),
	})
	if err != nil {
		t.Fatalf("UpdateCursor err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSubscriptionRepo_UpdateCursor_NoRows(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE feed_subscriptions SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := postgres.NewSubscriptionRepo(db)
	err := repo.UpdateCursor(context.Background(), &entity.Subscription{ID: "gone"})
	if err == nil {
		t.Fatal("expected no-rows error")
	}
}

func TestSubscriptionRepo_Unsubscribe(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE feed_subscriptions SET status`)).
		WithArgs(string(entity.SubscriptionUnsubscribed), "sub-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewSubscriptionRepo(db)
	if err := repo.Unsubscribe(context.Background(), "sub-1"); err != nil {
		t.Fatalf("Unsubscribe err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
