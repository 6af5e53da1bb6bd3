package services

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	"github.com/google/uuid"
)

// OverlapDetector checks a candidate interval against the stored
// reservations of a station.
type OverlapDetector struct {
	reservations domain.ReservationRepository
}

// NewOverlapDetector creates a detector over the reservation store.
func NewOverlapDetector(reservations domain.ReservationRepository) *OverlapDetector {
	return &OverlapDetector{reservations: reservations}
}

// FindConflict returns the first non-cancelled reservation of stationID
// overlapping [start, start+duration), ignoring exclude. Candidates are read
// from [start-MaxServiceDuration, end) since nothing starting earlier can
// still be running.
func (d *OverlapDetector) FindConflict(
	ctx context.Context,
	stationID uuid.UUID,
	start time.Time,
	durationMinutes int,
	exclude *uuid.UUID,
) (*domain.Reservation, error) {
	interval := domain.NewInterval(domain.NormalizeStart(start), durationMinutes)
	candidates, err := d.reservations.FindActiveStartingBetween(ctx, stationID,
		interval.Start.Add(-catalogDomain.MaxServiceDuration), interval.End)
	if err != nil {
		return nil, fmt.Errorf("load overlap candidates: %w", err)
	}
	return domain.FindOverlap(candidates, stationID, interval, exclude), nil
}

// Overlaps reports whether any reservation conflicts with the interval.
func (d *OverlapDetector) Overlaps(
	ctx context.Context,
	stationID uuid.UUID,
	start time.Time,
	durationMinutes int,
	exclude *uuid.UUID,
) (bool, error) {
	conflict, err := d.FindConflict(ctx, stationID, start, durationMinutes, exclude)
	return conflict != nil, err
}
