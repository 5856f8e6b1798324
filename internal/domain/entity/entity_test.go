package entity_test

import (
	"testing"
	"time"

	"feed-ingest/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionValidate(t *testing.T) {
	valid := entity.Subscription{
		ID:                 "sub-1",
		UserID:             "user-1",
		WorkspaceID:        "ws-1",
		FeedURL:            "https://example.com/feed.xml",
		Status:             entity.SubscriptionActive,
		FetchContentPolicy: entity.FetchContentAlways,
	}
	require.NoError(t, valid.Validate())

	missingIDs := valid
	missingIDs.UserID = ""
	assert.Error(t, missingIDs.Validate())

	missingURL := valid
	missingURL.FeedURL = ""
	assert.Error(t, missingURL.Validate())

	badPolicy := valid
	badPolicy.FetchContentPolicy = "SOMETIMES"
	assert.Error(t, badPolicy.Validate())
}

func TestSubscriptionEffectivePolicy(t *testing.T) {
	sub := entity.Subscription{}
	assert.Equal(t, entity.FetchContentAlways, sub.EffectivePolicy())

	sub.FetchContentPolicy = entity.FetchContentNever
	assert.Equal(t, entity.FetchContentNever, sub.EffectivePolicy())
}

func TestFeedItemEmbeddedContent(t *testing.T) {
	item := entity.FeedItem{Summary: "snippet"}
	assert.Equal(t, "snippet", item.EmbeddedContent())

	item.Content = "<p>full</p>"
	assert.Equal(t, "<p>full</p>", item.EmbeddedContent())
}

func TestContentFetchTaskMergesSubscribers(t *testing.T) {
	task := entity.ContentFetchTask{ArticleURL: "https://example.com/a"}

	task.AddSubscriber(entity.TaskSubscriber{UserID: "u1", PageID: "p1", WorkspaceID: "w1"})
	task.AddSubscriber(entity.TaskSubscriber{UserID: "u2", PageID: "p2", WorkspaceID: "w2"})
	// Same user again must not replace the originally assigned page.
	task.AddSubscriber(entity.TaskSubscriber{UserID: "u1", PageID: "p9", WorkspaceID: "w1"})

	require.Len(t, task.Subscribers, 2)
	assert.Equal(t, "p1", task.Subscribers["u1"].PageID)
	assert.Len(t, task.SubscriberList(), 2)
}

func TestSubscriptionNeverFetched(t *testing.T) {
	sub := entity.Subscription{}
	assert.True(t, sub.NeverFetched())

	sub.MostRecentItemDate = time.Now()
	assert.False(t, sub.NeverFetched())
}
