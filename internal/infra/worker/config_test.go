package worker

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMetrics = NewWorkerMetrics()

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "* * * * *", cfg.SweepSchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 4, cfg.Consumers)
	assert.NoError(t, cfg.Validate())
}

func TestWorkerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkerConfig)
		ok     bool
	}{
		{name: "valid defaults", mutate: func(c *WorkerConfig) {}, ok: true},
		{name: "bad cron", mutate: func(c *WorkerConfig) { c.SweepSchedule = "not cron" }, ok: false},
		{name: "bad timezone", mutate: func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" }, ok: false},
		{name: "zero consumers", mutate: func(c *WorkerConfig) { c.Consumers = 0 }, ok: false},
		{name: "negative refresh timeout", mutate: func(c *WorkerConfig) { c.RefreshTimeout = -time.Second }, ok: false},
		{name: "privileged health port", mutate: func(c *WorkerConfig) { c.HealthPort = 80 }, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv(slog.Default(), testMetrics)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), *cfg)
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("SWEEP_SCHEDULE", "*/5 * * * *")
	t.Setenv("WORKER_CONSUMERS", "8")
	t.Setenv("REFRESH_TIMEOUT", "10m")

	cfg, err := LoadConfigFromEnv(slog.Default(), testMetrics)
	require.NoError(t, err)
	assert.Equal(t, "*/5 * * * *", cfg.SweepSchedule)
	assert.Equal(t, 8, cfg.Consumers)
	assert.Equal(t, 10*time.Minute, cfg.RefreshTimeout)
}

func TestLoadConfigFromEnv_FallsBackOnInvalid(t *testing.T) {
	t.Setenv("SWEEP_SCHEDULE", "every now and then")
	t.Setenv("WORKER_CONSUMERS", "9000")

	cfg, err := LoadConfigFromEnv(slog.Default(), testMetrics)
	require.NoError(t, err, "fail-open: invalid values never abort startup")
	assert.Equal(t, "* * * * *", cfg.SweepSchedule)
	assert.Equal(t, 4, cfg.Consumers)
}
