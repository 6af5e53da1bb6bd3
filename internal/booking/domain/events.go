package domain

import (
	"time"

	"github.com/felixgeelhaar/stationbook/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Reservation"

	RoutingKeyCreated     = "booking.reservation.created"
	RoutingKeyConfirmed   = "booking.reservation.confirmed"
	RoutingKeyRescheduled = "booking.reservation.rescheduled"
	RoutingKeyCancelled   = "booking.reservation.cancelled"
	RoutingKeyCompleted   = "booking.reservation.completed"
)

// ReservationCreated is emitted when a reservation is booked.
type ReservationCreated struct {
	domain.BaseEvent
	Code            string     `json:"code"`
	StationID       uuid.UUID  `json:"station_id"`
	ServiceID       uuid.UUID  `json:"service_id"`
	Start           time.Time  `json:"start"`
	DurationMinutes int        `json:"duration_minutes"`
	PriceCents      int64      `json:"price_cents"`
	Status          string     `json:"status"`
	CustomerName    string     `json:"customer_name"`
	CustomerEmail   string     `json:"customer_email,omitempty"`
	RequesterID     *uuid.UUID `json:"requester_id,omitempty"`
}

// ReservationConfirmed is emitted when a pending reservation is confirmed.
type ReservationConfirmed struct {
	domain.BaseEvent
	Code string `json:"code"`
}

// ReservationRescheduled is emitted when a reservation moves to another slot.
type ReservationRescheduled struct {
	domain.BaseEvent
	Code              string    `json:"code"`
	PreviousStationID uuid.UUID `json:"previous_station_id"`
	PreviousStart     time.Time `json:"previous_start"`
	StationID         uuid.UUID `json:"station_id"`
	Start             time.Time `json:"start"`
}

// ReservationCancelled is emitted when a reservation is cancelled.
type ReservationCancelled struct {
	domain.BaseEvent
	Code           string `json:"code"`
	Reason         string `json:"reason,omitempty"`
	PreviousStatus string `json:"previous_status"`
}

// ReservationCompleted is emitted when the service has been delivered.
type ReservationCompleted struct {
	domain.BaseEvent
	Code          string `json:"code"`
	LoyaltyPoints int    `json:"loyalty_points"`
}

func newCreated(r *Reservation, now time.Time) *ReservationCreated {
	return &ReservationCreated{
		BaseEvent:       domain.NewBaseEvent(r.ID(), AggregateType, RoutingKeyCreated, now),
		Code:            r.code,
		StationID:       r.stationID,
		ServiceID:       r.serviceID,
		Start:           r.start,
		DurationMinutes: r.durationMinutes,
		PriceCents:      r.priceCents,
		Status:          r.status.String(),
		CustomerName:    r.customer.Name,
		CustomerEmail:   r.customer.Email,
		RequesterID:     r.requesterID,
	}
}
