package distlock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRetryInterval is the pause between acquisition attempts.
const DefaultRetryInterval = 200 * time.Millisecond

// Locker acquires multi-key locks with bounded waiting.
type Locker struct {
	backend       Backend
	retryInterval time.Duration
	logger        *slog.Logger
}

// NewLocker creates a locker over backend. A non-positive retryInterval
// selects DefaultRetryInterval.
func NewLocker(backend Backend, retryInterval time.Duration, logger *slog.Logger) *Locker {
	if retryInterval <= 0 {
		retryInterval = DefaultRetryInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Locker{
		backend:       backend,
		retryInterval: retryInterval,
		logger:        logger,
	}
}

// Acquire takes every key as one unit, retrying until wait elapses. It
// returns (nil, nil) when the keys stay contended for the whole wait, a
// wrapped backend error when the backend fails, and ctx.Err() when ctx ends
// first. The lease bounds how long the keys survive a holder that never
// releases them.
func (l *Locker) Acquire(ctx context.Context, keys []string, wait, lease time.Duration) (*Handle, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}

	token := uuid.NewString()
	deadline := time.Now().Add(wait)
	attempts := 0

	for {
		attempts++
		ok, err := l.backend.TryAcquire(ctx, keys, token, lease)
		if err != nil {
			return nil, fmt.Errorf("acquire lock: %w", err)
		}
		if ok {
			return &Handle{
				backend:    l.backend,
				keys:       keys,
				token:      token,
				acquiredAt: time.Now(),
				attempts:   attempts,
			}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			l.logger.Debug("lock wait timed out", "keys", len(keys), "attempts", attempts)
			return nil, nil
		}

		pause := l.retryInterval
		if pause > remaining {
			pause = remaining
		}
		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Handle is a held lock. Release is safe to call more than once.
type Handle struct {
	backend    Backend
	keys       []string
	token      string
	acquiredAt time.Time
	attempts   int

	once sync.Once
	err  error
}

// Keys returns the locked keys.
func (h *Handle) Keys() []string { return h.keys }

// Token returns the value written to every key.
func (h *Handle) Token() string { return h.token }

// Attempts returns how many tries acquisition took.
func (h *Handle) Attempts() int { return h.attempts }

// HeldFor returns the time since acquisition.
func (h *Handle) HeldFor() time.Duration { return time.Since(h.acquiredAt) }

// Release deletes the keys still owned by this handle. ErrNotHeld signals
// that the lease ran out before release.
func (h *Handle) Release(ctx context.Context) error {
	h.once.Do(func() {
		n, err := h.backend.Release(ctx, h.keys, h.token)
		switch {
		case err != nil:
			h.err = fmt.Errorf("release lock: %w", err)
		case n < len(h.keys):
			h.err = ErrNotHeld
		}
	})
	return h.err
}
