package worker

import (
	"feed-ingest/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the worker process. It embeds
// the shared ConfigMetrics for configuration fallback tracking and adds sweep
// and consumer counters.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// SweepRunsTotal counts due-subscription sweeps by status (success/failure).
	SweepRunsTotal *prometheus.CounterVec

	// SweepDurationSeconds measures the duration of one sweep.
	SweepDurationSeconds prometheus.Histogram

	// SweepFeedsEnqueuedTotal counts feeds enqueued across all sweeps.
	SweepFeedsEnqueuedTotal prometheus.Counter

	// SweepLastSuccessTimestamp records the Unix time of the last successful sweep.
	SweepLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates the worker metrics. Registration happens via
// promauto at construction time.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		SweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_sweep_runs_total",
			Help: "Total number of due-subscription sweeps by status (success/failure)",
		}, []string{"status"}),

		SweepDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_sweep_duration_seconds",
			Help:    "Duration of one due-subscription sweep in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60},
		}),

		SweepFeedsEnqueuedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_sweep_feeds_enqueued_total",
			Help: "Total number of feeds enqueued across all sweeps",
		}),

		SweepLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_sweep_last_success_timestamp",
			Help: "Unix timestamp of the last successful sweep",
		}),
	}
}

// MustRegister is a no-op kept for the conventional init pattern; metrics are
// auto-registered via promauto when created.
func (m *WorkerMetrics) MustRegister() {}

// RecordSweepRun increments the sweep counter for the given status
// ("success" or "failure").
func (m *WorkerMetrics) RecordSweepRun(status string) {
	m.SweepRunsTotal.WithLabelValues(status).Inc()
}

// RecordSweepDuration observes the duration of one sweep in seconds.
func (m *WorkerMetrics) RecordSweepDuration(seconds float64) {
	m.SweepDurationSeconds.Observe(seconds)
}

// RecordFeedsEnqueued adds the number of feeds enqueued by one sweep.
func (m *WorkerMetrics) RecordFeedsEnqueued(count int) {
	m.SweepFeedsEnqueuedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful sweep.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.SweepLastSuccessTimestamp.SetToCurrentTime()
}
