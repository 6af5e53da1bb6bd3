package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies booking failures for callers.
type ErrorKind string

const (
	KindNotFound       ErrorKind = "not_found"
	KindInvalidState   ErrorKind = "invalid_state"
	KindBusinessRule   ErrorKind = "business_rule_violation"
	KindConflict       ErrorKind = "conflict"
	KindInfrastructure ErrorKind = "infrastructure"
)

// BookingError is a business failure. Anything that is not a BookingError
// is treated as an infrastructure failure.
type BookingError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *BookingError) Unwrap() error { return e.Err }

// Is matches another BookingError of the same kind, so the kind sentinels
// below work with errors.Is.
func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

// Kind sentinels for errors.Is.
var (
	ErrNotFound     = &BookingError{Kind: KindNotFound}
	ErrInvalidState = &BookingError{Kind: KindInvalidState}
	ErrBusinessRule = &BookingError{Kind: KindBusinessRule}
	ErrConflict     = &BookingError{Kind: KindConflict}
)

var (
	ErrReservationNotFound = NotFound("reservation not found")
	ErrDuplicateCode       = errors.New("reservation code already exists")
	ErrOptimisticLocking   = errors.New("reservation was modified concurrently")
	ErrSlotUnavailable     = Conflict("this time slot is no longer available, please retry")
)

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *BookingError {
	return &BookingError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// InvalidState builds a KindInvalidState error.
func InvalidState(format string, args ...any) *BookingError {
	return &BookingError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// BusinessRule builds a KindBusinessRule error.
func BusinessRule(format string, args ...any) *BookingError {
	return &BookingError{Kind: KindBusinessRule, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *BookingError {
	return &BookingError{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf classifies err. It returns "" for nil and KindInfrastructure for
// errors that carry no BookingError.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var be *BookingError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindInfrastructure
}
