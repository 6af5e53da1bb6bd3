package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func errorsIs(err, target error) bool { return errors.Is(err, target) }

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindInfrastructure, KindOf(errors.New("connection reset")))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("create: %w", ErrSlotUnavailable)))
	assert.Equal(t, KindNotFound, KindOf(NotFound("station %d", 7)))
}

func TestBookingError_Is(t *testing.T) {
	err := fmt.Errorf("load: %w", ErrReservationNotFound)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, NotFound("station missing"), ErrReservationNotFound)
}

func TestBookingError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &BookingError{Kind: KindConflict, Message: "stale", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "stale")
}
