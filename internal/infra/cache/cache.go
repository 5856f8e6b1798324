// Package cache provides the TTL key-value capability shared by the failure
// tracker and the recently-saved dedup markers.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key does not exist or has expired.
var ErrMiss = errors.New("cache: key not found")

// Cache is the minimal TTL store contract the pipeline needs: plain get/set,
// an atomic counter increment and TTL (re)assignment. Implementations must be
// safe for concurrent use across refresh jobs.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
