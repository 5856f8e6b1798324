package refresh_test

import (
	"testing"
	"time"

	"feed-ingest/internal/usecase/refresh"

	"github.com/stretchr/testify/assert"
)

func TestNextRefresh(t *testing.T) {
	from := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		period    string
		frequency int
		want      time.Duration
	}{
		{name: "hourly", period: "hourly", frequency: 1, want: time.Hour},
		{name: "daily twice", period: "daily", frequency: 2, want: 48 * time.Hour},
		{name: "weekly", period: "weekly", frequency: 1, want: 168 * time.Hour},
		{name: "monthly", period: "monthly", frequency: 1, want: 720 * time.Hour},
		{name: "yearly", period: "yearly", frequency: 1, want: 8760 * time.Hour},
		{name: "unknown period defaults hourly", period: "fortnightly", frequency: 3, want: 3 * time.Hour},
		{name: "missing everything", period: "", frequency: 0, want: time.Hour},
		{name: "uppercase period", period: "Daily", frequency: 1, want: 24 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := refresh.NextRefresh(from, tt.period, tt.frequency)
			assert.Equal(t, from.Add(tt.want), got)
		})
	}
}
