package services

import "time"

// Reasons a slot is reported unavailable.
const (
	ReasonBooked  = "booked"
	ReasonTooSoon = "too_soon"
	ReasonTooFar  = "too_far"
)

// BookingWindow bounds how close to now and how far ahead a reservation may
// start.
type BookingWindow struct {
	MinAdvance time.Duration
	MaxAdvance time.Duration
}

// Check returns ReasonTooSoon, ReasonTooFar, or "" when start is bookable
// at now. Both bounds are inclusive.
func (w BookingWindow) Check(start, now time.Time) string {
	switch {
	case start.Before(now.Add(w.MinAdvance)):
		return ReasonTooSoon
	case w.MaxAdvance > 0 && start.After(now.Add(w.MaxAdvance)):
		return ReasonTooFar
	default:
		return ""
	}
}
