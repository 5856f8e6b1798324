// Package worker holds the operational pieces of the refresh worker process:
// configuration, health endpoints and Prometheus metrics.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"feed-ingest/internal/pkg/config"
)

// WorkerConfig controls the sweep schedule and the consumer pool of the
// refresh worker.
type WorkerConfig struct {
	// SweepSchedule is the cron expression for the due-subscription sweep.
	// Default: every minute.
	SweepSchedule string

	// Timezone is the IANA timezone name for cron scheduling.
	Timezone string

	// Consumers is the number of concurrent job consumers.
	// Range: 1-50
	Consumers int

	// SweepBatchSize caps how many due subscriptions one sweep picks up.
	SweepBatchSize int

	// RefreshTimeout is the maximum duration for refreshing one feed.
	RefreshTimeout time.Duration

	// QueueBlock is how long a consumer blocks waiting for new jobs.
	QueueBlock time.Duration

	// HealthPort is the port for the health check HTTP server.
	HealthPort int

	// MetricsPort is the port for the Prometheus metrics server.
	MetricsPort int
}

// DefaultConfig returns production defaults: a sweep every minute, four
// consumers, and a five minute ceiling per feed refresh.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		SweepSchedule:  "* * * * *",
		Timezone:       "UTC",
		Consumers:      4,
		SweepBatchSize: 500,
		RefreshTimeout: 5 * time.Minute,
		QueueBlock:     5 * time.Second,
		HealthPort:     9091,
		MetricsPort:    9090,
	}
}

// Validate checks the configuration values, collecting all failures.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.SweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("sweep schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.Consumers, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("consumers: %w", err))
	}
	if err := config.ValidateIntRange(c.SweepBatchSize, 1, 10000); err != nil {
		errs = append(errs, fmt.Errorf("sweep batch size: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.RefreshTimeout); err != nil {
		errs = append(errs, fmt.Errorf("refresh timeout: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.QueueBlock); err != nil {
		errs = append(errs, fmt.Errorf("queue block: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables with
// validation and automatic fallback to defaults on failure. It never returns
// an error: invalid values are logged, counted in metrics, and replaced with
// their defaults so the worker always starts.
//
// Environment variables:
//   - SWEEP_SCHEDULE: Cron expression (default: "* * * * *")
//   - WORKER_TIMEZONE: IANA timezone name (default: "UTC")
//   - WORKER_CONSUMERS: Integer 1-50 (default: 4)
//   - SWEEP_BATCH_SIZE: Integer 1-10000 (default: 500)
//   - REFRESH_TIMEOUT: Duration string, e.g. "5m" (default: 5 minutes)
//   - QUEUE_BLOCK: Duration string (default: 5 seconds)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//   - WORKER_METRICS_PORT: Integer 1024-65535 (default: 9090)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.ConfigLoadResult, set func(config.ConfigLoadResult)) {
		set(result)
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	apply("sweep_schedule",
		config.LoadEnvWithFallback("SWEEP_SCHEDULE", cfg.SweepSchedule, config.ValidateCronSchedule),
		func(r config.ConfigLoadResult) { cfg.SweepSchedule = r.Value.(string) })

	apply("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone),
		func(r config.ConfigLoadResult) { cfg.Timezone = r.Value.(string) })

	apply("consumers",
		config.LoadEnvInt("WORKER_CONSUMERS", cfg.Consumers, func(v int) error {
			return config.ValidateIntRange(v, 1, 50)
		}),
		func(r config.ConfigLoadResult) { cfg.Consumers = r.Value.(int) })

	apply("sweep_batch_size",
		config.LoadEnvInt("SWEEP_BATCH_SIZE", cfg.SweepBatchSize, func(v int) error {
			return config.ValidateIntRange(v, 1, 10000)
		}),
		func(r config.ConfigLoadResult) { cfg.SweepBatchSize = r.Value.(int) })

	apply("refresh_timeout",
		config.LoadEnvDuration("REFRESH_TIMEOUT", cfg.RefreshTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, 10*time.Second, time.Hour)
		}),
		func(r config.ConfigLoadResult) { cfg.RefreshTimeout = r.Value.(time.Duration) })

	apply("queue_block",
		config.LoadEnvDuration("QUEUE_BLOCK", cfg.QueueBlock, config.ValidatePositiveDuration),
		func(r config.ConfigLoadResult) { cfg.QueueBlock = r.Value.(time.Duration) })

	apply("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}),
		func(r config.ConfigLoadResult) { cfg.HealthPort = r.Value.(int) })

	apply("metrics_port",
		config.LoadEnvInt("WORKER_METRICS_PORT", cfg.MetricsPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}),
		func(r config.ConfigLoadResult) { cfg.MetricsPort = r.Value.(int) })

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
