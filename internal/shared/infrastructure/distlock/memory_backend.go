package distlock

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryBackend holds locks in process. It gives the same guarantees as the
// Redis backend for a single process and is used when no Redis is configured.
type MemoryBackend struct {
	mu    sync.Mutex
	locks map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryBackend creates an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		locks: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (b *MemoryBackend) TryAcquire(ctx context.Context, keys []string, token string, lease time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for _, key := range keys {
		if entry, ok := b.locks[key]; ok && now.Before(entry.expiresAt) {
			return false, nil
		}
	}
	expiresAt := now.Add(lease)
	for _, key := range keys {
		b.locks[key] = memoryEntry{token: token, expiresAt: expiresAt}
	}
	return true, nil
}

func (b *MemoryBackend) Release(ctx context.Context, keys []string, token string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	released := 0
	for _, key := range keys {
		entry, ok := b.locks[key]
		if !ok || entry.token != token {
			continue
		}
		delete(b.locks, key)
		if now.Before(entry.expiresAt) {
			released++
		}
	}
	return released, nil
}
