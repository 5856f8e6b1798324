// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh metrics track the feed refresh pipeline
var (
	// FeedRefreshesTotal counts refresh outcomes per terminal state
	FeedRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_refreshes_total",
			Help: "Total number of feed refresh runs",
		},
		[]string{"status"}, // status: success, unchanged, blocked, fetch_error, parse_error
	)

	// FeedRefreshDuration measures the end-to-end duration of one refresh run
	FeedRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feed_refresh_duration_seconds",
			Help:    "Time taken to refresh one feed across all its subscribers",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	// FeedItemsProcessedTotal counts feed items examined per subscription pass
	FeedItemsProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_items_processed_total",
			Help: "Total number of feed items examined during refresh",
		},
	)

	// FeedItemsSkippedTotal counts items dropped before saving
	FeedItemsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_items_skipped_total",
			Help: "Total number of feed items skipped during refresh",
		},
		[]string{"reason"}, // reason: old, duplicate
	)
)

// Content metrics track page creation and downstream dispatch
var (
	// FeedPagesCreatedTotal counts pages built directly from feed content
	FeedPagesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_pages_created_total",
			Help: "Total number of pages created from feed-embedded content",
		},
	)

	// ContentTasksDispatchedTotal counts content fetch tasks sent downstream
	ContentTasksDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_tasks_dispatched_total",
			Help: "Total number of content fetch tasks dispatched",
		},
		[]string{"status"}, // status: success, failure
	)

	// ContentTaskSubscribers measures how many subscribers share one task
	ContentTaskSubscribers = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_task_subscribers",
			Help:    "Number of subscribers batched into one content fetch task",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 50},
		},
	)

	// DispatchDuration measures the latency of one dispatch call
	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_dispatch_duration_seconds",
			Help:    "Time taken to dispatch a content fetch task",
			Buckets: []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4},
		},
	)
)

// Queue metrics track the refresh job stream
var (
	// QueueJobsEnqueuedTotal counts refresh jobs pushed to the stream
	QueueJobsEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_jobs_enqueued_total",
			Help: "Total number of refresh jobs enqueued",
		},
	)

	// QueueJobsProcessedTotal counts consumed jobs by outcome
	QueueJobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_jobs_processed_total",
			Help: "Total number of refresh jobs consumed",
		},
		[]string{"status"}, // status: success, failure
	)

	// QueuePendingJobs tracks the current stream backlog
	QueuePendingJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "queue_pending_jobs",
			Help: "Number of refresh jobs waiting in the stream",
		},
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordOperationDuration records the duration of a named operation
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
