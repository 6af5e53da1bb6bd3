package queries

import (
	"context"
	"strings"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	"github.com/google/uuid"
)

// ReservationDTO is the read model of a reservation.
type ReservationDTO struct {
	ID              uuid.UUID
	Code            string
	StationID       uuid.UUID
	ServiceID       uuid.UUID
	Start           time.Time
	End             time.Time
	DurationMinutes int
	PriceCents      int64
	Status          string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	RequesterID     *uuid.UUID
	LoyaltyPoints   int
	Notes           string
	CancelReason    string
	ConfirmedAt     *time.Time
	CompletedAt     *time.Time
	CancelledAt     *time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func toReservationDTO(r *domain.Reservation) *ReservationDTO {
	c := r.Customer()
	return &ReservationDTO{
		ID:              r.ID(),
		Code:            r.Code(),
		StationID:       r.StationID(),
		ServiceID:       r.ServiceID(),
		Start:           r.Start(),
		End:             r.End(),
		DurationMinutes: r.DurationMinutes(),
		PriceCents:      r.PriceCents(),
		Status:          r.Status().String(),
		CustomerName:    c.Name,
		CustomerEmail:   c.Email,
		CustomerPhone:   c.Phone,
		RequesterID:     r.RequesterID(),
		LoyaltyPoints:   r.LoyaltyPoints(),
		Notes:           r.Notes(),
		CancelReason:    r.CancelReason(),
		ConfirmedAt:     r.ConfirmedAt(),
		CompletedAt:     r.CompletedAt(),
		CancelledAt:     r.CancelledAt(),
		Version:         r.Version(),
		CreatedAt:       r.CreatedAt(),
		UpdatedAt:       r.UpdatedAt(),
	}
}

// GetReservationQuery looks a reservation up by ID.
type GetReservationQuery struct {
	ReservationID uuid.UUID
}

// GetReservationHandler handles GetReservationQuery.
type GetReservationHandler struct {
	reservations domain.ReservationRepository
}

// NewGetReservationHandler creates a new GetReservationHandler.
func NewGetReservationHandler(reservations domain.ReservationRepository) *GetReservationHandler {
	return &GetReservationHandler{reservations: reservations}
}

// Handle executes the query.
func (h *GetReservationHandler) Handle(ctx context.Context, query GetReservationQuery) (*ReservationDTO, error) {
	r, err := h.reservations.FindByID(ctx, query.ReservationID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.ErrReservationNotFound
	}
	return toReservationDTO(r), nil
}

// GetReservationByCodeQuery looks a reservation up by its code. Codes are
// matched case-insensitively.
type GetReservationByCodeQuery struct {
	Code string
}

// GetReservationByCodeHandler handles GetReservationByCodeQuery.
type GetReservationByCodeHandler struct {
	reservations domain.ReservationRepository
}

// NewGetReservationByCodeHandler creates a new GetReservationByCodeHandler.
func NewGetReservationByCodeHandler(reservations domain.ReservationRepository) *GetReservationByCodeHandler {
	return &GetReservationByCodeHandler{reservations: reservations}
}

// Handle executes the query.
func (h *GetReservationByCodeHandler) Handle(ctx context.Context, query GetReservationByCodeQuery) (*ReservationDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(query.Code))
	if !domain.IsValidCode(code) {
		return nil, domain.BusinessRule("%q is not a reservation code", query.Code)
	}
	r, err := h.reservations.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, domain.NotFound("no reservation with code %s", code)
	}
	return toReservationDTO(r), nil
}
