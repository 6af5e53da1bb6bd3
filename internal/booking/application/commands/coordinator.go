package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/stationbook/internal/shared/application"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
)

// Dependencies are the collaborators of the Coordinator.
type Dependencies struct {
	UnitOfWork   sharedApplication.UnitOfWork
	Stations     catalogDomain.StationRepository
	Services     catalogDomain.ServiceRepository
	Reservations domain.ReservationRepository
	Outbox       outbox.Repository
	Schedules    services.ScheduleSource
	Locks        *services.SlotLockManager
	Cache        *services.AvailabilityCache
	Codes        *services.CodeIssuer
	// Policy defaults to services.DefaultPolicy.
	Policy  services.TransitionPolicy
	Metrics observability.Metrics
}

// Coordinator runs every reservation write: creation, updates and lifecycle
// transitions. Writes that claim a slot hold the slot lock from the final
// availability check until the transaction has committed.
type Coordinator struct {
	uow          sharedApplication.UnitOfWork
	stations     catalogDomain.StationRepository
	services     catalogDomain.ServiceRepository
	reservations domain.ReservationRepository
	outbox       outbox.Repository
	schedules    services.ScheduleSource
	overlaps     *services.OverlapDetector
	locks        *services.SlotLockManager
	cache        *services.AvailabilityCache
	codes        *services.CodeIssuer
	policy       services.TransitionPolicy
	window       services.BookingWindow
	metrics      observability.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

// NewCoordinator creates a coordinator enforcing window on new bookings.
func NewCoordinator(deps Dependencies, window services.BookingWindow, logger *slog.Logger) *Coordinator {
	if deps.Policy == nil {
		deps.Policy = services.DefaultPolicy{}
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		uow:          deps.UnitOfWork,
		stations:     deps.Stations,
		services:     deps.Services,
		reservations: deps.Reservations,
		outbox:       deps.Outbox,
		schedules:    deps.Schedules,
		overlaps:     services.NewOverlapDetector(deps.Reservations),
		locks:        deps.Locks,
		cache:        deps.Cache,
		codes:        deps.Codes,
		policy:       deps.Policy,
		window:       window,
		metrics:      deps.Metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock replaces the clock used for timestamps and advance-notice rules.
func (c *Coordinator) WithClock(now func() time.Time) *Coordinator {
	c.now = now
	return c
}

// ReservationResult describes a reservation after a successful write.
type ReservationResult struct {
	ID            uuid.UUID
	Code          string
	StationID     uuid.UUID
	ServiceID     uuid.UUID
	Start         time.Time
	End           time.Time
	Status        string
	LoyaltyPoints int
	Version       int
}

func resultOf(r *domain.Reservation) *ReservationResult {
	return &ReservationResult{
		ID:            r.ID(),
		Code:          r.Code(),
		StationID:     r.StationID(),
		ServiceID:     r.ServiceID(),
		Start:         r.Start(),
		End:           r.End(),
		Status:        r.Status().String(),
		LoyaltyPoints: r.LoyaltyPoints(),
		Version:       r.Version(),
	}
}

func (c *Coordinator) startTimer(operation string) *observability.Timer {
	return observability.StartTimer(c.metrics, observability.MetricReservationDuration, operation)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(domain.KindOf(err))
}

func (c *Coordinator) loadService(ctx context.Context, id uuid.UUID) (*catalogDomain.Service, error) {
	service, err := c.services.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	if service == nil {
		return nil, domain.NotFound("service %s not found", id)
	}
	if !service.IsActive() {
		return nil, domain.InvalidState("service %q is not active", service.Name())
	}
	return service, nil
}

func (c *Coordinator) loadStation(ctx context.Context, id uuid.UUID) (*catalogDomain.Station, error) {
	station, err := c.stations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load station: %w", err)
	}
	if station == nil {
		return nil, domain.NotFound("station %s not found", id)
	}
	if !station.IsActive() {
		return nil, domain.InvalidState("station %q is not active", station.Name())
	}
	return station, nil
}

func (c *Coordinator) loadReservation(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	r, err := c.reservations.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r == nil {
		return nil, domain.ErrReservationNotFound
	}
	return r, nil
}

func (c *Coordinator) checkWindow(start, now time.Time) error {
	switch c.window.Check(start, now) {
	case services.ReasonTooSoon:
		return domain.BusinessRule("reservations must start at least %s from now", c.window.MinAdvance)
	case services.ReasonTooFar:
		return domain.BusinessRule("reservations cannot start more than %d days ahead", int(c.window.MaxAdvance/(24*time.Hour)))
	}
	return nil
}

// checkHours verifies [start, start+minutes) lies inside the station's
// effective hours for the day it starts on.
func (c *Coordinator) checkHours(ctx context.Context, stationID uuid.UUID, start time.Time, minutes int) error {
	loc := c.schedules.Location()
	date := schedulingDomain.DateOf(start, loc)

	schedule, err := c.schedules.Resolve(ctx, stationID, date)
	if err != nil {
		if errors.Is(err, schedulingDomain.ErrStationNotFound) {
			return domain.NotFound("station %s not found", stationID)
		}
		return fmt.Errorf("resolve schedule: %w", err)
	}
	switch {
	case schedule == nil:
		return domain.BusinessRule("station is closed on %s", date)
	case schedule.IsBlocked():
		return domain.BusinessRule("station is blocked on %s", date)
	}

	end := start.Add(time.Duration(minutes) * time.Minute)
	if !schedule.Contains(start, end, loc) {
		return domain.BusinessRule("%s-%s is outside opening hours %s-%s on %s",
			start.In(loc).Format("15:04"), end.In(loc).Format("15:04"), schedule.Start, schedule.End, date)
	}
	return nil
}

// claim locks the slot of [start, start+minutes) on stationID. The returned
// release func must be deferred by the caller.
func (c *Coordinator) claim(ctx context.Context, stationID uuid.UUID, start time.Time, minutes int) (func(), error) {
	handle, err := c.locks.Acquire(ctx, stationID, start, minutes)
	if err != nil {
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}
	if handle == nil {
		return nil, c.conflict(ctx, "lock", stationID, start, nil)
	}
	return func() { c.locks.Release(context.WithoutCancel(ctx), handle) }, nil
}

// ensureFree fails with a conflict when another live reservation overlaps.
func (c *Coordinator) ensureFree(ctx context.Context, stage string, stationID uuid.UUID, start time.Time, minutes int, exclude *uuid.UUID) error {
	existing, err := c.overlaps.FindConflict(ctx, stationID, start, minutes, exclude)
	if err != nil {
		return err
	}
	if existing != nil {
		return c.conflict(ctx, stage, stationID, start, existing)
	}
	return nil
}

func (c *Coordinator) conflict(ctx context.Context, stage string, stationID uuid.UUID, start time.Time, existing *domain.Reservation) error {
	c.metrics.Counter(observability.MetricReservationsConflicts, 1, observability.T("stage", stage))
	attrs := []any{
		"stage", stage,
		"station_id", stationID,
		"start", start.UTC(),
	}
	if existing != nil {
		attrs = append(attrs, "reservation_id", existing.ID(), "code", existing.Code())
	}
	c.logger.InfoContext(ctx, "reservation slot conflict", attrs...)
	return domain.ErrSlotUnavailable
}

// record writes the pending domain events of r to the outbox inside the
// unit of work carried by ctx.
func (c *Coordinator) record(ctx context.Context, r *domain.Reservation, actorID uuid.UUID) error {
	events := r.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(ctx, actorID))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := c.outbox.SaveBatch(ctx, msgs); err != nil {
		return fmt.Errorf("save outbox messages: %w", err)
	}
	r.ClearDomainEvents()
	return nil
}

// persist writes an updated reservation, mapping a lost version race to a
// conflict.
func (c *Coordinator) persist(ctx context.Context, r *domain.Reservation, actorID uuid.UUID) error {
	if err := c.reservations.Update(ctx, r); err != nil {
		if errors.Is(err, domain.ErrOptimisticLocking) {
			return domain.Conflict("reservation %s was changed by someone else, reload and retry", r.Code())
		}
		return err
	}
	return c.record(ctx, r, actorID)
}

// invalidate drops cached availability of every station day touched. It
// runs after commit and ignores cancellation of the request.
func (c *Coordinator) invalidate(ctx context.Context, days ...stationDay) {
	ctx = context.WithoutCancel(ctx)
	seen := make(map[stationDay]bool, len(days))
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		c.cache.Invalidate(ctx, d.stationID, d.date)
	}
}

type stationDay struct {
	stationID uuid.UUID
	date      schedulingDomain.Date
}

func (c *Coordinator) dayOf(stationID uuid.UUID, start time.Time) stationDay {
	return stationDay{stationID: stationID, date: schedulingDomain.DateOf(start, c.schedules.Location())}
}
