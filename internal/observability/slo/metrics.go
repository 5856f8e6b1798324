// Package slo tracks service level objectives for the refresh pipeline.
package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets define the service level objectives for the refresh pipeline.
const (
	// JobSuccessSLO defines the target ratio of refresh jobs completing
	// without error (99% = at most 1 in 100 jobs fails)
	JobSuccessSLO = 0.99

	// FreshnessP95SLO defines the target for 95th percentile refresh lag in
	// seconds: time between a subscription becoming due and its refresh
	// completing (5 minutes)
	FreshnessP95SLO = 300.0

	// DispatchErrorRateSLO defines the maximum acceptable ratio of failed
	// content fetch dispatches (1% = 0.01)
	DispatchErrorRateSLO = 0.01
)

// SLO tracking metrics
// These gauges are updated periodically (e.g., every minute) based on recent
// measurements to track whether the pipeline is meeting its SLO targets.
var (
	// SLOJobSuccessRatio tracks the current job success ratio (0-1)
	// calculated as: successful_jobs / total_jobs
	SLOJobSuccessRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_job_success_ratio",
			Help: "Current refresh job success ratio (0-1), target: 0.99",
		},
	)

	// SLOFreshnessP95 tracks the current p95 refresh lag in seconds
	SLOFreshnessP95 = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_freshness_p95_seconds",
			Help: "Current p95 refresh lag in seconds, target: 300",
		},
	)

	// SLODispatchErrorRate tracks the current dispatch error ratio (0-1)
	SLODispatchErrorRate = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_dispatch_error_rate_ratio",
			Help: "Current content dispatch error ratio (0-1), target: 0.01",
		},
	)
)

// UpdateJobSuccessRatio updates the job success SLO metric.
// Call this periodically with the calculated success ratio.
func UpdateJobSuccessRatio(ratio float64) {
	SLOJobSuccessRatio.Set(ratio)
}

// UpdateFreshnessP95 updates the p95 refresh lag SLO metric.
//
// Example using Prometheus query:
//
//	histogram_quantile(0.95, rate(feed_refresh_duration_seconds_bucket[5m]))
func UpdateFreshnessP95(seconds float64) {
	SLOFreshnessP95.Set(seconds)
}

// UpdateDispatchErrorRate updates the dispatch error rate SLO metric.
func UpdateDispatchErrorRate(ratio float64) {
	SLODispatchErrorRate.Set(ratio)
}
