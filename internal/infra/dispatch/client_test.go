package dispatch_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/infra/dispatch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTask() *entity.ContentFetchTask {
	published := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	task := &entity.ContentFetchTask{
		ID:         "task-1",
		ArticleURL: "https://example.com/post",
		FeedURL:    "https://example.com/feed.xml",
		Item:       entity.FeedItem{Link: "https://example.com/post", PublishedAt: &published},
	}
	task.AddSubscriber(entity.TaskSubscriber{UserID: "u1", PageID: "p1", WorkspaceID: "w1"})
	task.AddSubscriber(entity.TaskSubscriber{UserID: "u2", PageID: "p2", WorkspaceID: "w2"})
	return task
}

func TestClient_Dispatch(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := dispatch.NewClient(dispatch.DefaultConfig(srv.URL, "secret"), nil)
	require.NoError(t, c.Dispatch(context.Background(), testTask()))

	assert.Equal(t, "task-1", got["taskId"])
	assert.Equal(t, "feed-ingest", got["source"])
	assert.Equal(t, "https://example.com/post", got["pageUrl"])
	assert.Equal(t, "https://example.com/feed.xml", got["feedUrl"])
	assert.Equal(t, "2025-06-01T09:00:00Z", got["publishedAt"])
	assert.Equal(t, "high", got["priority"])
	assert.NotEmpty(t, got["traceId"])
	assert.Len(t, got["users"], 2)
}

func TestClient_DispatchUndatedItemStampsPublishedAt(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	task := testTask()
	task.Item.PublishedAt = nil

	before := time.Now().UTC()
	c := dispatch.NewClient(dispatch.DefaultConfig(srv.URL, "secret"), nil)
	require.NoError(t, c.Dispatch(context.Background(), task))

	raw, ok := got["publishedAt"].(string)
	require.True(t, ok, "publishedAt must be present even without an item date")
	stamped, err := time.Parse(time.RFC3339, raw)
	require.NoError(t, err)
	assert.False(t, stamped.Before(before.Truncate(time.Second)))
	assert.False(t, stamped.After(time.Now().UTC().Add(time.Second)))
}

func TestClient_DispatchRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := dispatch.NewClient(dispatch.DefaultConfig(srv.URL, "wrong"), nil)
	err := c.Dispatch(context.Background(), testTask())
	assert.ErrorContains(t, err, "HTTP 401")
}

func TestClient_DispatchFreshTraceIDs(t *testing.T) {
	traceIDs := make(map[string]bool)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		traceIDs[body["traceId"].(string)] = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := dispatch.DefaultConfig(srv.URL, "secret")
	cfg.RequestsPerSecond = 0
	c := dispatch.NewClient(cfg, nil)
	require.NoError(t, c.Dispatch(context.Background(), testTask()))
	require.NoError(t, c.Dispatch(context.Background(), testTask()))

	assert.Len(t, traceIDs, 2, "each dispatch carries its own trace id")
}
