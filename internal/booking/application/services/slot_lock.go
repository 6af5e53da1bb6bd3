package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/distlock"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
)

// LockCell is the granularity of slot locks. Any two requests touching the
// same cell of a station are serialized.
const LockCell = 15 * time.Minute

const lockCellLayout = "200601021504"

// Locker acquires a set of keys as one unit.
type Locker interface {
	Acquire(ctx context.Context, keys []string, wait, lease time.Duration) (*distlock.Handle, error)
}

// SlotLockManager locks the 15-minute cells a booking interval covers.
type SlotLockManager struct {
	locker  Locker
	wait    time.Duration
	lease   time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewSlotLockManager creates a lock manager that waits up to wait for the
// cells and holds them for at most lease.
func NewSlotLockManager(locker Locker, wait, lease time.Duration, metrics observability.Metrics, logger *slog.Logger) *SlotLockManager {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SlotLockManager{
		locker:  locker,
		wait:    wait,
		lease:   lease,
		metrics: metrics,
		logger:  logger,
	}
}

// LockKeys returns one key per cell between start rounded down and
// start+duration rounded up, and at least one key. Keys share the station
// hash tag so a Redis Cluster keeps them in one slot.
func LockKeys(stationID uuid.UUID, start time.Time, durationMinutes int) []string {
	start = start.UTC()
	first := start.Truncate(LockCell)
	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	last := end.Truncate(LockCell)
	if last.Before(end) {
		last = last.Add(LockCell)
	}
	if !last.After(first) {
		last = first.Add(LockCell)
	}

	keys := make([]string, 0, int(last.Sub(first)/LockCell))
	for cell := first; cell.Before(last); cell = cell.Add(LockCell) {
		keys = append(keys, fmt.Sprintf("lock:station:{%s}:cell:%s", stationID, cell.Format(lockCellLayout)))
	}
	return keys
}

// Acquire locks the cells of [start, start+duration) on stationID. It
// returns (nil, nil) when the cells stay contended for the whole wait.
func (m *SlotLockManager) Acquire(ctx context.Context, stationID uuid.UUID, start time.Time, durationMinutes int) (*distlock.Handle, error) {
	keys := LockKeys(stationID, start, durationMinutes)
	timer := observability.StartTimer(m.metrics, observability.MetricLockWait, "acquire")

	handle, err := m.locker.Acquire(ctx, keys, m.wait, m.lease)
	switch {
	case err != nil:
		timer.Stop("error")
		return nil, err
	case handle == nil:
		timer.Stop("timeout")
		m.metrics.Counter(observability.MetricLockTimeouts, 1)
		m.logger.WarnContext(ctx, "slot lock wait timed out",
			"station_id", stationID,
			"start", start.UTC(),
			"cells", len(keys),
		)
		return nil, nil
	}

	timer.Stop("ok")
	if handle.Attempts() > 1 {
		m.logger.DebugContext(ctx, "slot lock acquired after contention",
			"station_id", stationID,
			"attempts", handle.Attempts(),
		)
	}
	return handle, nil
}

// Release frees the handle. Failures, including an expired lease, are
// logged and not returned.
func (m *SlotLockManager) Release(ctx context.Context, handle *distlock.Handle) {
	if handle == nil {
		return
	}
	if err := handle.Release(ctx); err != nil {
		m.logger.WarnContext(ctx, "slot lock release failed",
			"error", err,
			"held_for", handle.HeldFor(),
		)
	}
}
