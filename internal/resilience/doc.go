// Package resilience provides reliability and fault tolerance patterns for the application.
// It includes circuit breakers, retry logic and the feed failure tracker that
// temporarily blocks feeds whose fetches keep failing.
//
// The package supports:
//   - Circuit breakers for the database and outbound HTTP calls
//   - Retry logic with exponential backoff and jitter
//   - Per-feed failure tracking backed by the cache layer
//
// Usage Example:
//
//	cb := circuitbreaker.NewCircuitBreaker("my-service", circuitbreaker.DefaultConfig())
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return callExternalService()
//	})
//
//	retryConfig := retry.DefaultConfig()
//	err := retry.WithBackoff(ctx, retryConfig, func() error {
//	    return performOperation()
//	})
package resilience
