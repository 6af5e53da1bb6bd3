package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/google/uuid"
)

// DefaultSlotStep is the spacing between candidate start times.
const DefaultSlotStep = 15 * time.Minute

// ScheduleSource resolves effective station hours.
type ScheduleSource interface {
	Resolve(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date) (*schedulingDomain.EffectiveSchedule, error)
	Location() *time.Location
}

// SlotGenerator lists the start times a service can be booked at on a
// station day.
type SlotGenerator struct {
	schedules    ScheduleSource
	services     catalogDomain.ServiceRepository
	reservations domain.ReservationRepository
	cache        *AvailabilityCache
	window       BookingWindow
	step         time.Duration
	now          func() time.Time
	logger       *slog.Logger
}

// NewSlotGenerator creates a generator. A non-positive step selects
// DefaultSlotStep.
func NewSlotGenerator(
	schedules ScheduleSource,
	services catalogDomain.ServiceRepository,
	reservations domain.ReservationRepository,
	cache *AvailabilityCache,
	window BookingWindow,
	step time.Duration,
	logger *slog.Logger,
) *SlotGenerator {
	if step <= 0 {
		step = DefaultSlotStep
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SlotGenerator{
		schedules:    schedules,
		services:     services,
		reservations: reservations,
		cache:        cache,
		window:       window,
		step:         step,
		now:          time.Now,
		logger:       logger,
	}
}

// WithClock replaces the clock used for the advance-notice rules.
func (g *SlotGenerator) WithClock(now func() time.Time) *SlotGenerator {
	g.now = now
	return g
}

// GenerateSlots returns every candidate start of serviceID on stationID and
// date. Blocked and closed days yield no slots. The booked/free base list is
// cached; advance-notice rules are applied on every call.
func (g *SlotGenerator) GenerateSlots(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date, serviceID uuid.UUID) ([]Slot, error) {
	service, err := g.services.FindByID(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if service == nil {
		return nil, domain.NotFound("service %s not found", serviceID)
	}

	base, ok := g.cache.GetSlots(ctx, stationID, date, serviceID)
	if !ok {
		if base, err = g.baseSlots(ctx, stationID, date, service.DurationMinutes()); err != nil {
			return nil, err
		}
		g.cache.SetSlots(ctx, stationID, date, serviceID, base)
	}

	now := g.now()
	slots := make([]Slot, len(base))
	for i, s := range base {
		slots[i] = s
		if !s.Available {
			continue
		}
		if reason := g.window.Check(s.Start, now); reason != "" {
			slots[i].Available = false
			slots[i].Reason = reason
		}
	}
	return slots, nil
}

func (g *SlotGenerator) baseSlots(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date, durationMinutes int) ([]Slot, error) {
	schedule, err := g.schedules.Resolve(ctx, stationID, date)
	if err != nil {
		if errors.Is(err, schedulingDomain.ErrStationNotFound) {
			return nil, domain.NotFound("station %s not found", stationID)
		}
		return nil, fmt.Errorf("resolve schedule: %w", err)
	}
	if schedule == nil || !schedule.IsOpen() {
		return []Slot{}, nil
	}
	opens, closes, _ := schedule.Window(g.schedules.Location())

	booked, err := g.daySnapshot(ctx, stationID, date)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(durationMinutes) * time.Minute
	slots := []Slot{}
	for t := opens; !t.Add(duration).After(closes); t = t.Add(g.step) {
		slot := Slot{Start: t.UTC(), Available: true}
		candidate := domain.Interval{Start: t, End: t.Add(duration)}
		for _, b := range booked {
			if candidate.Overlaps(domain.Interval{Start: b.Start, End: b.End}) {
				slot.Available = false
				slot.Reason = ReasonBooked
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// daySnapshot returns the reservations touching the station day, read once
// per station and date through the cache.
func (g *SlotGenerator) daySnapshot(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date) ([]BookedInterval, error) {
	if booked, ok := g.cache.GetDaySnapshot(ctx, stationID, date); ok {
		return booked, nil
	}

	loc := g.schedules.Location()
	dayStart := date.StartOfDay(loc)
	dayEnd := date.AddDays(1).StartOfDay(loc)
	reservations, err := g.reservations.FindActiveStartingBetween(ctx, stationID,
		dayStart.Add(-catalogDomain.MaxServiceDuration), dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load day reservations: %w", err)
	}

	booked := make([]BookedInterval, 0, len(reservations))
	for _, r := range reservations {
		if !r.Status().BlocksSlot() || !r.End().After(dayStart) {
			continue
		}
		booked = append(booked, BookedInterval{
			ReservationID: r.ID(),
			Start:         r.Start(),
			End:           r.End(),
		})
	}
	g.cache.SetDaySnapshot(ctx, stationID, date, booked)
	return booked, nil
}
