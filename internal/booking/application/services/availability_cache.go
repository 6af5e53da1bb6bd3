package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
)

// DefaultCacheTTL is how long availability entries live.
const DefaultCacheTTL = 5 * time.Minute

// Slot is one bookable start time of a service on a station.
type Slot struct {
	Start     time.Time `json:"start"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason,omitempty"`
}

// BookedInterval is a reservation occupying part of a station's day.
type BookedInterval struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
}

// AvailabilityCache stores computed slot lists and per-day booking
// snapshots. It never fails a caller: every store error counts as a miss.
type AvailabilityCache struct {
	store   cache.Store
	ttl     time.Duration
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewAvailabilityCache creates a cache over store. A non-positive ttl
// selects DefaultCacheTTL.
func NewAvailabilityCache(store cache.Store, ttl time.Duration, metrics observability.Metrics, logger *slog.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AvailabilityCache{
		store:   store,
		ttl:     ttl,
		metrics: metrics,
		logger:  logger,
	}
}

// SlotsKey is the key of a slot list for one service on one station day.
func SlotsKey(stationID uuid.UUID, date schedulingDomain.Date, serviceID uuid.UUID) string {
	return fmt.Sprintf("avail:slots:%s:%s:%s", stationID, date, serviceID)
}

// DayKey is the key of the booking snapshot of one station day.
func DayKey(stationID uuid.UUID, date schedulingDomain.Date) string {
	return fmt.Sprintf("avail:day:%s:%s", stationID, date)
}

func (c *AvailabilityCache) GetSlots(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date, serviceID uuid.UUID) ([]Slot, bool) {
	var slots []Slot
	ok := c.get(ctx, "slots", SlotsKey(stationID, date, serviceID), &slots)
	return slots, ok
}

func (c *AvailabilityCache) SetSlots(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date, serviceID uuid.UUID, slots []Slot) {
	c.set(ctx, SlotsKey(stationID, date, serviceID), slots)
}

func (c *AvailabilityCache) InvalidateSlots(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date, serviceID uuid.UUID) {
	c.delete(ctx, SlotsKey(stationID, date, serviceID))
}

func (c *AvailabilityCache) GetDaySnapshot(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date) ([]BookedInterval, bool) {
	var booked []BookedInterval
	ok := c.get(ctx, "day", DayKey(stationID, date), &booked)
	return booked, ok
}

func (c *AvailabilityCache) SetDaySnapshot(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date, booked []BookedInterval) {
	c.set(ctx, DayKey(stationID, date), booked)
}

func (c *AvailabilityCache) InvalidateDaySnapshot(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date) {
	c.delete(ctx, DayKey(stationID, date))
}

// Invalidate drops the day snapshot and the slot lists of every service for
// the station day.
func (c *AvailabilityCache) Invalidate(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date) {
	c.InvalidateDaySnapshot(ctx, stationID, date)

	pattern := fmt.Sprintf("avail:slots:%s:%s:*", stationID, date)
	n, err := c.store.DeletePattern(ctx, pattern)
	if err != nil {
		c.fail(ctx, "delete", pattern, err)
		return
	}
	c.logger.DebugContext(ctx, "availability invalidated",
		"station_id", stationID,
		"date", date.String(),
		"slot_lists", n,
	)
}

// InvalidateStation drops every cached day of a station after its hours
// changed. A nil station drops the whole availability cache, which is what a
// change to the global rules requires.
func (c *AvailabilityCache) InvalidateStation(ctx context.Context, stationID *uuid.UUID) {
	patterns := []string{"avail:*"}
	if stationID != nil {
		patterns = []string{
			fmt.Sprintf("avail:day:%s:*", *stationID),
			fmt.Sprintf("avail:slots:%s:*", *stationID),
		}
	}
	for _, pattern := range patterns {
		if _, err := c.store.DeletePattern(ctx, pattern); err != nil {
			c.fail(ctx, "delete", pattern, err)
		}
	}
}

func (c *AvailabilityCache) get(ctx context.Context, kind, key string, dst any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.fail(ctx, "get", key, err)
		}
		c.metrics.Counter(observability.MetricCacheMisses, 1, observability.T("cache", kind))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.fail(ctx, "decode", key, err)
		c.metrics.Counter(observability.MetricCacheMisses, 1, observability.T("cache", kind))
		return false
	}
	c.metrics.Counter(observability.MetricCacheHits, 1, observability.T("cache", kind))
	return true
}

func (c *AvailabilityCache) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.fail(ctx, "encode", key, err)
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.fail(ctx, "set", key, err)
	}
}

func (c *AvailabilityCache) delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.fail(ctx, "delete", key, err)
	}
}

func (c *AvailabilityCache) fail(ctx context.Context, op, key string, err error) {
	c.metrics.Counter(observability.MetricCacheErrors, 1, observability.T(observability.OperationKey, op))
	c.logger.WarnContext(ctx, "availability cache degraded",
		"op", op,
		"key", key,
		"error", err,
	)
}
