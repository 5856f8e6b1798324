// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - Feed refresh metrics (outcomes, durations, items processed)
//   - Content dispatch metrics (tasks, batching, latency)
//   - Queue metrics (enqueued, processed, backlog)
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the worker's /metrics endpoint.
//
// Example usage:
//
//	start := time.Now()
//	// ... refresh a feed ...
//	metrics.RecordFeedRefresh(metrics.RefreshSuccess, time.Since(start))
package metrics
