package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig())

	if cb == nil {
		t.Fatal("expected circuit breaker, got nil")
	}
	if cb.Name() != "test-circuit" {
		t.Errorf("expected name='test-circuit', got %q", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected initial state=Closed, got %v", cb.State())
	}
}

func TestCircuitBreaker_Execute(t *testing.T) {
	cb := New(testConfig())

	result, err := cb.Execute(func() (interface{}, error) {
		return "success", nil
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if result != "success" {
		t.Errorf("expected result='success', got %v", result)
	}

	testErr := errors.New("test error")
	result, err = cb.Execute(func() (interface{}, error) {
		return nil, testErr
	})
	if err != testErr {
		t.Errorf("expected error=%v, got %v", testErr, err)
	}
	if result != nil {
		t.Errorf("expected nil result, got %v", result)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected state=Closed below MinRequests, got %v", cb.State())
	}
}

func TestCircuitBreaker_TripsOpen(t *testing.T) {
	cb := New(testConfig())
	testErr := errors.New("test error")

	// 5 failures + 1 success = 83% failure rate over 6 requests, past the
	// 60% threshold with MinRequests satisfied.
	for i := 0; i < 4; i++ {
		if _, err := cb.Execute(func() (interface{}, error) {
			return nil, testErr
		}); err != testErr {
			t.Errorf("request %d: expected test error, got %v", i, err)
		}
	}
	if _, err := cb.Execute(func() (interface{}, error) {
		return "success", nil
	}); err != nil {
		t.Errorf("success request failed: %v", err)
	}
	if _, err := cb.Execute(func() (interface{}, error) {
		return nil, testErr
	}); err != testErr {
		t.Errorf("expected test error, got %v", err)
	}

	if !cb.IsOpen() {
		t.Fatalf("expected open circuit after exceeding failure threshold, got %v", cb.State())
	}

	_, err := cb.Execute(func() (interface{}, error) {
		t.Error("function should not be called when circuit is open")
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 100 * time.Millisecond

	cb := New(cfg)

	testErr := errors.New("test error")
	for i := 0; i < 6; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, testErr
		})
	}
	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("circuit should be open, got %v", cb.State())
	}

	time.Sleep(150 * time.Millisecond)

	if _, err := cb.Execute(func() (interface{}, error) {
		return "success", nil
	}); err != nil {
		t.Errorf("expected success in half-open state, got %v", err)
	}
	if cb.State() == gobreaker.StateOpen {
		t.Errorf("circuit should not be open after successful half-open request, got %v", cb.State())
	}
}

func TestCircuitBreaker_BelowMinRequests(t *testing.T) {
	cfg := testConfig()
	cfg.FailureThreshold = 0.5
	cfg.MinRequests = 10

	cb := New(cfg)

	testErr := errors.New("test error")
	for i := 0; i < 4; i++ {
		if _, err := cb.Execute(func() (interface{}, error) {
			return nil, testErr
		}); err != testErr {
			t.Errorf("request %d: expected test error, got %v", i, err)
		}
	}

	if cb.State() != gobreaker.StateClosed {
		t.Errorf("expected state=Closed below MinRequests, got %v", cb.State())
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("test")

	if cfg.Name != "test" {
		t.Errorf("expected Name='test', got %q", cfg.Name)
	}
	if cfg.MaxRequests != 3 {
		t.Errorf("expected MaxRequests=3, got %d", cfg.MaxRequests)
	}
	if cfg.FailureThreshold != 0.6 {
		t.Errorf("expected FailureThreshold=0.6, got %f", cfg.FailureThreshold)
	}
	if cfg.MinRequests != 5 {
		t.Errorf("expected MinRequests=5, got %d", cfg.MinRequests)
	}
}

func TestFeedFetchConfig(t *testing.T) {
	cfg := FeedFetchConfig()

	if cfg.Name != "feed-fetch" {
		t.Errorf("expected Name='feed-fetch', got %q", cfg.Name)
	}
	if cfg.MaxRequests != 5 {
		t.Errorf("expected MaxRequests=5, got %d", cfg.MaxRequests)
	}
	if cfg.FailureThreshold != 0.7 {
		t.Errorf("expected FailureThreshold=0.7, got %f", cfg.FailureThreshold)
	}
	if cfg.MinRequests != 10 {
		t.Errorf("expected MinRequests=10, got %d", cfg.MinRequests)
	}
}

func TestDispatchConfig(t *testing.T) {
	cfg := DispatchConfig()

	if cfg.Name != "content-fetch-dispatch" {
		t.Errorf("expected Name='content-fetch-dispatch', got %q", cfg.Name)
	}
	if cfg.MaxRequests != 3 {
		t.Errorf("expected MaxRequests=3, got %d", cfg.MaxRequests)
	}
	if cfg.FailureThreshold != 0.6 {
		t.Errorf("expected FailureThreshold=0.6, got %f", cfg.FailureThreshold)
	}
}

func TestPageFetchConfig(t *testing.T) {
	cfg := PageFetchConfig()

	if cfg.Name != "page-fetch" {
		t.Errorf("expected Name='page-fetch', got %q", cfg.Name)
	}
	if cfg.FailureThreshold != 0.8 {
		t.Errorf("expected FailureThreshold=0.8, got %f", cfg.FailureThreshold)
	}
	if cfg.Timeout != 120*time.Second {
		t.Errorf("expected Timeout=120s, got %v", cfg.Timeout)
	}
}
