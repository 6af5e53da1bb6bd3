package domain

import (
	"time"

	"github.com/google/uuid"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds the interval starting at start lasting durationMinutes.
func NewInterval(start time.Time, durationMinutes int) Interval {
	return Interval{Start: start, End: start.Add(time.Duration(durationMinutes) * time.Minute)}
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// FindOverlap returns the first reservation among candidates that occupies
// the station during interval, skipping cancelled reservations and exclude.
func FindOverlap(candidates []*Reservation, stationID uuid.UUID, interval Interval, exclude *uuid.UUID) *Reservation {
	for _, r := range candidates {
		if r.StationID() != stationID || !r.Status().BlocksSlot() {
			continue
		}
		if exclude != nil && r.ID() == *exclude {
			continue
		}
		if r.Interval().Overlaps(interval) {
			return r
		}
	}
	return nil
}
