package domain

import (
	"strings"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/shared/domain"
	"github.com/google/uuid"
)

// Customer is who the reservation is for.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Reservation books one service on one station for a fixed interval. Start,
// duration and price are copied from the service at booking time.
type Reservation struct {
	domain.BaseAggregateRoot
	code            string
	stationID       uuid.UUID
	serviceID       uuid.UUID
	start           time.Time
	durationMinutes int
	priceCents      int64
	status          Status
	customer        Customer
	requesterID     *uuid.UUID
	loyaltyPoints   int
	notes           string
	cancelReason    string
	confirmedAt     *time.Time
	completedAt     *time.Time
	cancelledAt     *time.Time
}

// NewReservationParams carries the inputs of a new reservation.
type NewReservationParams struct {
	Code            string
	StationID       uuid.UUID
	ServiceID       uuid.UUID
	Start           time.Time
	DurationMinutes int
	PriceCents      int64
	Customer        Customer
	RequesterID     *uuid.UUID
	Notes           string
	// InitialStatus is Confirmed for direct bookings; Pending leaves the
	// reservation awaiting confirmation.
	InitialStatus Status
}

// NewReservation creates a reservation and records ReservationCreated.
func NewReservation(p NewReservationParams, now time.Time) (*Reservation, error) {
	if !IsValidCode(p.Code) {
		return nil, BusinessRule("invalid reservation code %q", p.Code)
	}
	if p.DurationMinutes <= 0 {
		return nil, BusinessRule("duration must be positive")
	}
	if p.PriceCents < 0 {
		return nil, BusinessRule("price must not be negative")
	}
	p.Customer.Name = strings.TrimSpace(p.Customer.Name)
	if p.Customer.Name == "" {
		return nil, BusinessRule("customer name is required")
	}
	if p.InitialStatus == "" {
		p.InitialStatus = StatusConfirmed
	}
	if p.InitialStatus != StatusPending && p.InitialStatus != StatusConfirmed {
		return nil, InvalidState("reservations start as pending or confirmed, not %s", p.InitialStatus)
	}

	r := &Reservation{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(now),
		code:              p.Code,
		stationID:         p.StationID,
		serviceID:         p.ServiceID,
		start:             NormalizeStart(p.Start),
		durationMinutes:   p.DurationMinutes,
		priceCents:        p.PriceCents,
		status:            p.InitialStatus,
		customer:          p.Customer,
		requesterID:       p.RequesterID,
		loyaltyPoints:     LoyaltyPointsFor(p.PriceCents, p.RequesterID),
		notes:             strings.TrimSpace(p.Notes),
	}
	if r.status == StatusConfirmed {
		r.confirmedAt = stamp(now)
	}
	r.AddDomainEvent(newCreated(r, now))
	return r, nil
}

// ReservationState is the persisted form of a reservation.
type ReservationState struct {
	Code            string
	StationID       uuid.UUID
	ServiceID       uuid.UUID
	Start           time.Time
	DurationMinutes int
	PriceCents      int64
	Status          Status
	Customer        Customer
	RequesterID     *uuid.UUID
	LoyaltyPoints   int
	Notes           string
	CancelReason    string
	ConfirmedAt     *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
}

// RehydrateReservation recreates a reservation from persisted state.
func RehydrateReservation(root domain.BaseAggregateRoot, s ReservationState) *Reservation {
	return &Reservation{
		BaseAggregateRoot: root,
		code:              s.Code,
		stationID:         s.StationID,
		serviceID:         s.ServiceID,
		start:             NormalizeStart(s.Start),
		durationMinutes:   s.DurationMinutes,
		priceCents:        s.PriceCents,
		status:            s.Status,
		customer:          s.Customer,
		requesterID:       s.RequesterID,
		loyaltyPoints:     s.LoyaltyPoints,
		notes:             s.Notes,
		cancelReason:      s.CancelReason,
		confirmedAt:       s.ConfirmedAt,
		completedAt:       s.CompletedAt,
		cancelledAt:       s.CancelledAt,
	}
}

// NormalizeStart maps a start instant to UTC minute precision.
func NormalizeStart(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

// LoyaltyPointsFor awards one point per whole currency unit to account
// holders; guests earn nothing.
func LoyaltyPointsFor(priceCents int64, requesterID *uuid.UUID) int {
	if requesterID == nil || priceCents <= 0 {
		return 0
	}
	return int(priceCents / 100)
}

func (r *Reservation) Code() string            { return r.code }
func (r *Reservation) StationID() uuid.UUID    { return r.stationID }
func (r *Reservation) ServiceID() uuid.UUID    { return r.serviceID }
func (r *Reservation) Start() time.Time        { return r.start }
func (r *Reservation) DurationMinutes() int    { return r.durationMinutes }
func (r *Reservation) PriceCents() int64       { return r.priceCents }
func (r *Reservation) Status() Status          { return r.status }
func (r *Reservation) Customer() Customer      { return r.customer }
func (r *Reservation) RequesterID() *uuid.UUID { return r.requesterID }
func (r *Reservation) LoyaltyPoints() int      { return r.loyaltyPoints }
func (r *Reservation) Notes() string           { return r.notes }
func (r *Reservation) CancelReason() string    { return r.cancelReason }
func (r *Reservation) ConfirmedAt() *time.Time { return r.confirmedAt }
func (r *Reservation) CompletedAt() *time.Time { return r.completedAt }
func (r *Reservation) CancelledAt() *time.Time { return r.cancelledAt }

// End returns the instant the reservation frees the station.
func (r *Reservation) End() time.Time {
	return r.start.Add(time.Duration(r.durationMinutes) * time.Minute)
}

// Interval returns [Start, End).
func (r *Reservation) Interval() Interval {
	return NewInterval(r.start, r.durationMinutes)
}

// Confirm moves a pending reservation to confirmed.
func (r *Reservation) Confirm(now time.Time) error {
	if r.status != StatusPending {
		return InvalidState("only pending reservations can be confirmed, reservation %s is %s", r.code, r.status)
	}
	r.status = StatusConfirmed
	r.confirmedAt = stamp(now)
	r.Touch(now)
	r.AddDomainEvent(&ReservationConfirmed{
		BaseEvent: domain.NewBaseEvent(r.ID(), AggregateType, RoutingKeyConfirmed, now),
		Code:      r.code,
	})
	return nil
}

// Complete marks a confirmed reservation as delivered.
func (r *Reservation) Complete(now time.Time) error {
	if r.status != StatusConfirmed {
		return InvalidState("only confirmed reservations can be completed, reservation %s is %s", r.code, r.status)
	}
	r.status = StatusCompleted
	r.completedAt = stamp(now)
	r.Touch(now)
	r.AddDomainEvent(&ReservationCompleted{
		BaseEvent:     domain.NewBaseEvent(r.ID(), AggregateType, RoutingKeyCompleted, now),
		Code:          r.code,
		LoyaltyPoints: r.loyaltyPoints,
	})
	return nil
}

// Cancel frees the slot of a non-terminal reservation.
func (r *Reservation) Cancel(reason string, now time.Time) error {
	if !r.status.CanTransitionTo(StatusCancelled) {
		return InvalidState("reservation %s is %s and cannot be cancelled", r.code, r.status)
	}
	previous := r.status
	r.status = StatusCancelled
	r.cancelReason = strings.TrimSpace(reason)
	r.cancelledAt = stamp(now)
	r.Touch(now)
	r.AddDomainEvent(&ReservationCancelled{
		BaseEvent:      domain.NewBaseEvent(r.ID(), AggregateType, RoutingKeyCancelled, now),
		Code:           r.code,
		Reason:         r.cancelReason,
		PreviousStatus: previous.String(),
	})
	return nil
}

// TransitionTo applies a status change through the matching lifecycle method.
func (r *Reservation) TransitionTo(next Status, reason string, now time.Time) error {
	if !r.status.CanTransitionTo(next) {
		return InvalidState("cannot move reservation %s from %s to %s", r.code, r.status, next)
	}
	switch next {
	case StatusConfirmed:
		return r.Confirm(now)
	case StatusCompleted:
		return r.Complete(now)
	case StatusCancelled:
		return r.Cancel(reason, now)
	default:
		return InvalidState("cannot move reservation %s to %s", r.code, next)
	}
}

// Reschedule moves a non-terminal reservation to another station or start.
func (r *Reservation) Reschedule(stationID uuid.UUID, start time.Time, now time.Time) error {
	if r.status.IsTerminal() {
		return InvalidState("reservation %s is %s and cannot be rescheduled", r.code, r.status)
	}
	start = NormalizeStart(start)
	if stationID == r.stationID && start.Equal(r.start) {
		return nil
	}
	event := &ReservationRescheduled{
		BaseEvent:         domain.NewBaseEvent(r.ID(), AggregateType, RoutingKeyRescheduled, now),
		Code:              r.code,
		PreviousStationID: r.stationID,
		PreviousStart:     r.start,
		StationID:         stationID,
		Start:             start,
	}
	r.stationID = stationID
	r.start = start
	r.Touch(now)
	r.AddDomainEvent(event)
	return nil
}

// UpdateCustomer edits the contact details of a non-terminal reservation.
func (r *Reservation) UpdateCustomer(c Customer, now time.Time) error {
	if r.status.IsTerminal() {
		return InvalidState("reservation %s is %s and cannot be edited", r.code, r.status)
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return BusinessRule("customer name is required")
	}
	r.customer = c
	r.Touch(now)
	return nil
}

// SetNotes replaces the notes of a non-terminal reservation.
func (r *Reservation) SetNotes(notes string, now time.Time) error {
	if r.status.IsTerminal() {
		return InvalidState("reservation %s is %s and cannot be edited", r.code, r.status)
	}
	r.notes = strings.TrimSpace(notes)
	r.Touch(now)
	return nil
}

func stamp(now time.Time) *time.Time {
	t := now.UTC().Truncate(time.Second)
	return &t
}
