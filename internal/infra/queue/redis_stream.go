// Package queue carries refresh jobs between the scheduling sweep and the
// worker pool over a Redis stream with a consumer group, giving
// at-least-once delivery across worker replicas.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feed-ingest/internal/usecase/refresh"

	"github.com/redis/go-redis/v9"
)

const (
	// Stream is the refresh job stream key.
	Stream = "feeds:refresh-jobs"

	// Group is the worker consumer group. All worker replicas share it so
	// each job is delivered to exactly one of them.
	Group = "refresh-workers"

	payloadField = "payload"

	// maxStreamLen bounds the stream so a stalled consumer pool cannot grow
	// it without limit. Trimming is approximate (XADD MAXLEN ~).
	maxStreamLen = 100000
)

// Message is one delivered refresh job plus the stream id needed to ack it.
type Message struct {
	ID  string
	Job *refresh.Job
}

// RedisStreamQueue implements the job queue on Redis streams.
type RedisStreamQueue struct {
	client   *redis.Client
	consumer string
	logger   *slog.Logger
}

// NewRedisStreamQueue wraps an existing client. consumer names this worker
// within the group, typically the hostname.
func NewRedisStreamQueue(client *redis.Client, consumer string, logger *slog.Logger) *RedisStreamQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStreamQueue{client: client, consumer: consumer, logger: logger}
}

// EnsureGroup creates the consumer group (and the stream) if missing. Safe
// to call on every startup.
func (q *RedisStreamQueue) EnsureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, Stream, Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Enqueue appends one refresh job to the stream.
func (q *RedisStreamQueue) Enqueue(ctx context.Context, job *refresh.Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode refresh job: %w", err)
	}
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: Stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: map[string]interface{}{payloadField: string(encoded)},
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue refresh job: %w", err)
	}
	q.logger.Debug("refresh job enqueued",
		slog.String("stream_id", id),
		slog.String("feed_url", job.FeedURL),
		slog.Int("subscriptions", len(job.Subscriptions)))
	return nil
}

// Dequeue blocks up to the given duration for new jobs and returns what
// arrived. An empty slice means the block timed out.
func (q *RedisStreamQueue) Dequeue(ctx context.Context, block time.Duration, count int64) ([]Message, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    Group,
		Consumer: q.consumer,
		Streams:  []string{Stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue refresh jobs: %w", err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			raw, ok := entry.Values[payloadField].(string)
			if !ok {
				q.logger.Warn("malformed queue entry, acking and dropping",
					slog.String("stream_id", entry.ID))
				_ = q.Ack(ctx, entry.ID)
				continue
			}
			var job refresh.Job
			if err := json.Unmarshal([]byte(raw), &job); err != nil {
				q.logger.Warn("undecodable refresh job, acking and dropping",
					slog.String("stream_id", entry.ID),
					slog.Any("error", err))
				_ = q.Ack(ctx, entry.ID)
				continue
			}
			messages = append(messages, Message{ID: entry.ID, Job: &job})
		}
	}
	return messages, nil
}

// Len returns the current stream length, used for the backlog gauge.
func (q *RedisStreamQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.XLen(ctx, Stream).Result()
	if err != nil {
		return 0, fmt.Errorf("stream length: %w", err)
	}
	return n, nil
}

// Ack confirms a delivered job. Unacked jobs stay in the pending list and
// can be inspected or claimed by operators.
func (q *RedisStreamQueue) Ack(ctx context.Context, id string) error {
	if err := q.client.XAck(ctx, Stream, Group, id).Err(); err != nil {
		return fmt.Errorf("ack refresh job %s: %w", id, err)
	}
	return nil
}
