package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadEnvString(t *testing.T) {
	t.Setenv("TEST_STRING", "")
	if got := LoadEnvString("TEST_STRING", "fallback"); got != "fallback" {
		t.Errorf("unset: expected 'fallback', got %q", got)
	}

	t.Setenv("TEST_STRING", "0 6 * * *")
	if got := LoadEnvString("TEST_STRING", "fallback"); got != "0 6 * * *" {
		t.Errorf("set: expected env value, got %q", got)
	}
}

func TestLoadEnvWithFallback(t *testing.T) {
	t.Setenv("TEST_SCHEDULE", "")
	result := LoadEnvWithFallback("TEST_SCHEDULE", "30 5 * * *", ValidateCronSchedule)
	if result.Value.(string) != "30 5 * * *" || result.FallbackApplied {
		t.Errorf("unset: expected silent default, got %+v", result)
	}

	t.Setenv("TEST_SCHEDULE", "0 */6 * * *")
	result = LoadEnvWithFallback("TEST_SCHEDULE", "30 5 * * *", ValidateCronSchedule)
	if result.Value.(string) != "0 */6 * * *" {
		t.Errorf("valid: expected env value, got %v", result.Value)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("valid: expected no warnings, got %v", result.Warnings)
	}

	t.Setenv("TEST_SCHEDULE", "not a schedule")
	result = LoadEnvWithFallback("TEST_SCHEDULE", "30 5 * * *", ValidateCronSchedule)
	if result.Value.(string) != "30 5 * * *" || !result.FallbackApplied {
		t.Errorf("invalid: expected fallback, got %+v", result)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "TEST_SCHEDULE") {
		t.Errorf("invalid: expected one warning naming the variable, got %v", result.Warnings)
	}
}

func TestLoadEnvDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "")
	result := LoadEnvDuration("TEST_TIMEOUT", 30*time.Second, ValidatePositiveDuration)
	if result.Value.(time.Duration) != 30*time.Second || result.FallbackApplied {
		t.Errorf("unset: expected silent default, got %+v", result)
	}

	t.Setenv("TEST_TIMEOUT", "1h30m")
	result = LoadEnvDuration("TEST_TIMEOUT", 30*time.Second, ValidatePositiveDuration)
	if result.Value.(time.Duration) != 90*time.Minute {
		t.Errorf("valid: expected 90m, got %v", result.Value)
	}

	t.Setenv("TEST_TIMEOUT", "ninety minutes")
	result = LoadEnvDuration("TEST_TIMEOUT", 30*time.Second, ValidatePositiveDuration)
	if result.Value.(time.Duration) != 30*time.Second || !result.FallbackApplied {
		t.Errorf("unparseable: expected fallback, got %+v", result)
	}

	t.Setenv("TEST_TIMEOUT", "-5s")
	result = LoadEnvDuration("TEST_TIMEOUT", 30*time.Second, ValidatePositiveDuration)
	if result.Value.(time.Duration) != 30*time.Second || !result.FallbackApplied {
		t.Errorf("negative: expected fallback via validator, got %+v", result)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("negative: expected one warning, got %v", result.Warnings)
	}
}

func TestLoadEnvInt(t *testing.T) {
	inRange := func(v int) error { return ValidateIntRange(v, 1, 50) }

	t.Setenv("TEST_PARALLELISM", "")
	result := LoadEnvInt("TEST_PARALLELISM", 5, inRange)
	if result.Value.(int) != 5 || result.FallbackApplied {
		t.Errorf("unset: expected silent default, got %+v", result)
	}

	t.Setenv("TEST_PARALLELISM", "10")
	result = LoadEnvInt("TEST_PARALLELISM", 5, inRange)
	if result.Value.(int) != 10 {
		t.Errorf("valid: expected 10, got %v", result.Value)
	}

	t.Setenv("TEST_PARALLELISM", "ten")
	result = LoadEnvInt("TEST_PARALLELISM", 5, inRange)
	if result.Value.(int) != 5 || !result.FallbackApplied {
		t.Errorf("unparseable: expected fallback, got %+v", result)
	}

	t.Setenv("TEST_PARALLELISM", "500")
	result = LoadEnvInt("TEST_PARALLELISM", 5, inRange)
	if result.Value.(int) != 5 || !result.FallbackApplied {
		t.Errorf("out of range: expected fallback via validator, got %+v", result)
	}
}

func TestLoadEnvBool(t *testing.T) {
	tests := []struct {
		raw          string
		want         bool
		wantFallback bool
	}{
		{"true", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"t", true, false},
		{"false", false, false},
		{"0", false, false},
		{"F", false, false},
		{"yes", true, true},
		{"enabled", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("TEST_FLAG", tt.raw)
			result := LoadEnvBool("TEST_FLAG", true)
			if result.Value.(bool) != tt.want {
				t.Errorf("expected %v, got %v", tt.want, result.Value)
			}
			if result.FallbackApplied != tt.wantFallback {
				t.Errorf("expected FallbackApplied=%v, got %v", tt.wantFallback, result.FallbackApplied)
			}
		})
	}

	t.Setenv("TEST_FLAG", "")
	result := LoadEnvBool("TEST_FLAG", false)
	if result.Value.(bool) != false || result.FallbackApplied {
		t.Errorf("unset: expected silent default, got %+v", result)
	}
}
