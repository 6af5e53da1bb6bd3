// Package cache provides the key-value stores behind the availability cache.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented cache with TTLs and glob-style bulk deletion.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching a glob pattern where '*'
	// matches any run of characters.
	DeletePattern(ctx context.Context, pattern string) (int64, error)
}
