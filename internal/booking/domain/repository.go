package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ReservationRepository defines persistence for reservations. Find methods
// return nil, nil when nothing matches.
type ReservationRepository interface {
	// Create inserts a new reservation. A code collision returns ErrDuplicateCode.
	Create(ctx context.Context, r *Reservation) error
	// Update writes r if it is still at the version it was loaded at and
	// bumps the version; otherwise it returns ErrOptimisticLocking.
	Update(ctx context.Context, r *Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*Reservation, error)
	FindByCode(ctx context.Context, code string) (*Reservation, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	// FindActiveStartingBetween returns the station's non-cancelled
	// reservations with from <= start < to.
	FindActiveStartingBetween(ctx context.Context, stationID uuid.UUID, from, to time.Time) ([]*Reservation, error)
}
