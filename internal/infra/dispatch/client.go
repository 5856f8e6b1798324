// Package dispatch posts batched content fetch tasks to the downstream
// content fetch service.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/resilience/circuitbreaker"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Config holds the dispatch endpoint settings.
type Config struct {
	// Endpoint is the content fetch service URL.
	Endpoint string

	// Token authenticates the request, passed as a query parameter the way
	// the downstream service expects it.
	Token string

	// Timeout bounds a single dispatch request.
	Timeout time.Duration

	// RequestsPerSecond throttles outbound dispatches. Zero disables
	// throttling.
	RequestsPerSecond float64
}

// DefaultConfig returns production defaults for dispatching.
func DefaultConfig(endpoint, token string) Config {
	return Config{
		Endpoint:          endpoint,
		Token:             token,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 10,
	}
}

// payload is the wire shape the content fetch service consumes.
type payload struct {
	Users       []entity.TaskSubscriber `json:"users"`
	TaskID      string                  `json:"taskId"`
	Source      string                  `json:"source"`
	PageURL     string                  `json:"pageUrl"`
	FeedURL     string                  `json:"feedUrl"`
	SavedAt     string                  `json:"savedAt"`
	PublishedAt string                  `json:"publishedAt"`
	Priority    string                  `json:"priority"`
	TraceID     string                  `json:"traceId"`
}

// Client dispatches content fetch tasks over HTTP. Requests run through a
// circuit breaker and a rate limiter; the breaker keeps a dead downstream
// from absorbing every refresh job's time budget. Safe for concurrent use.
type Client struct {
	config  Config
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient builds a dispatch client.
func NewClient(config Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		breaker: circuitbreaker.New(circuitbreaker.DispatchConfig()),
		limiter: limiter,
		logger:  logger,
	}
}

// Dispatch posts one task. Every call carries a fresh trace id so downstream
// logs can be correlated per task.
func (c *Client) Dispatch(ctx context.Context, task *entity.ContentFetchTask) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("dispatch rate limit: %w", err)
	}

	// Undated items stamp the dispatch time so downstream ordering never
	// sees a zero date.
	body := payload{
		Users:       task.SubscriberList(),
		TaskID:      task.ID,
		Source:      "feed-ingest",
		PageURL:     task.ArticleURL,
		FeedURL:     task.FeedURL,
		SavedAt:     time.Now().UTC().Format(time.RFC3339),
		PublishedAt: task.Item.PublishedOrNow().UTC().Format(time.RFC3339),
		Priority:    "high",
		TraceID:     uuid.NewString(),
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("dispatch encode: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doPost(ctx, encoded)
	})
	if err != nil {
		return err
	}

	c.logger.Info("content fetch task dispatched",
		slog.String("task_id", task.ID),
		slog.String("page_url", task.ArticleURL),
		slog.Int("subscribers", len(task.Subscribers)),
		slog.String("trace_id", body.TraceID))
	return nil
}

func (c *Client) doPost(ctx context.Context, body []byte) error {
	endpoint, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return fmt.Errorf("dispatch endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("token", c.config.Token)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("dispatch request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatch post: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("dispatch rejected: HTTP %d", resp.StatusCode)
	}
	return nil
}
