package metrics

import "time"

// Refresh statuses recorded by RecordFeedRefresh.
const (
	RefreshSuccess    = "success"
	RefreshUnchanged  = "unchanged"
	RefreshBlocked    = "blocked"
	RefreshFetchError = "fetch_error"
	RefreshParseError = "parse_error"
)

// RecordFeedRefresh records the outcome and duration of one feed refresh run.
func RecordFeedRefresh(status string, duration time.Duration) {
	FeedRefreshesTotal.WithLabelValues(status).Inc()
	FeedRefreshDuration.Observe(duration.Seconds())
}

// RecordItemsProcessed adds to the count of feed items examined.
func RecordItemsProcessed(count int) {
	FeedItemsProcessedTotal.Add(float64(count))
}

// RecordItemSkipped records an item dropped before saving.
// Reason should be "old" or "duplicate".
func RecordItemSkipped(reason string) {
	FeedItemsSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordPageCreated records a page built from feed-embedded content.
func RecordPageCreated() {
	FeedPagesCreatedTotal.Inc()
}

// RecordTaskDispatched records the result of one content fetch task dispatch,
// along with how many subscribers were batched into it.
func RecordTaskDispatched(success bool, subscribers int, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	ContentTasksDispatchedTotal.WithLabelValues(status).Inc()
	ContentTaskSubscribers.Observe(float64(subscribers))
	DispatchDuration.Observe(duration.Seconds())
}

// RecordJobEnqueued records a refresh job pushed to the stream.
func RecordJobEnqueued() {
	QueueJobsEnqueuedTotal.Inc()
}

// RecordJobProcessed records a consumed refresh job.
func RecordJobProcessed(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	QueueJobsProcessedTotal.WithLabelValues(status).Inc()
}

// UpdatePendingJobs updates the stream backlog gauge.
func UpdatePendingJobs(count int64) {
	QueuePendingJobs.Set(float64(count))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "list_due_subscriptions").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
