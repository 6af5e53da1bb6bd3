// Package distlock implements an all-or-nothing lock over a set of string
// keys, shared by every process that talks to the same backend.
package distlock

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotHeld is returned by Release when some keys had already expired
	// or were taken over by another holder before the release ran.
	ErrNotHeld = errors.New("lock not held")

	// ErrNoKeys is returned when Acquire is called with an empty key set.
	ErrNoKeys = errors.New("lock requires at least one key")
)

// Backend performs single acquisition attempts. Implementations must set
// every key or none of them, and must only delete keys whose value equals
// the caller's token.
type Backend interface {
	// TryAcquire sets all keys to token with the given lease if none of them
	// is currently held. It reports false when at least one key is taken.
	TryAcquire(ctx context.Context, keys []string, token string, lease time.Duration) (bool, error)

	// Release deletes the keys still holding token and returns how many
	// were deleted.
	Release(ctx context.Context, keys []string, token string) (int, error)
}
