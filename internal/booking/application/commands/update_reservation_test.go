package commands

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
)

func ptr[T any](v T) *T { return &v }

func TestCoordinator_UpdateReschedule(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	mine, err := h.coordinator.Create(ctx, h.book(jan(10, 10, 0)))
	require.NoError(t, err)
	_, err = h.coordinator.Create(ctx, h.book(jan(10, 11, 0)))
	require.NoError(t, err)

	t.Run("overlapping its own slot", func(t *testing.T) {
		moved, err := h.coordinator.Update(ctx, UpdateReservationCommand{
			ReservationID: mine.ID,
			Start:         ptr(jan(10, 10, 15)),
			Role:          services.RoleAdmin,
		})
		require.NoError(t, err)
		assert.Equal(t, jan(10, 10, 15), moved.Start)
		assert.Equal(t, mine.Code, moved.Code)
	})

	t.Run("onto a taken slot", func(t *testing.T) {
		_, err := h.coordinator.Update(ctx, UpdateReservationCommand{
			ReservationID: mine.ID,
			Start:         ptr(jan(10, 10, 45)),
			Role:          services.RoleAdmin,
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, jan(10, 10, 15), h.load(t, mine.ID).Start())
	})

	t.Run("outside opening hours", func(t *testing.T) {
		_, err := h.coordinator.Update(ctx, UpdateReservationCommand{
			ReservationID: mine.ID,
			Start:         ptr(jan(10, 19, 0)),
			Role:          services.RoleAdmin,
		})
		assert.Equal(t, domain.KindBusinessRule, domain.KindOf(err))
	})

	t.Run("to another day", func(t *testing.T) {
		moved, err := h.coordinator.Update(ctx, UpdateReservationCommand{
			ReservationID: mine.ID,
			Start:         ptr(jan(11, 9, 0)),
			Role:          services.RoleAdmin,
		})
		require.NoError(t, err)
		assert.Equal(t, jan(11, 9, 0), moved.Start)
	})

	assert.Contains(t, h.outboxKeys(t), domain.RoutingKeyRescheduled)
}

func TestCoordinator_UpdateInvalidatesBothDays(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created, err := h.coordinator.Create(ctx, h.book(jan(10, 10, 0)))
	require.NoError(t, err)

	oldDay := schedulingDomain.MustDate("2025-01-10")
	newDay := schedulingDomain.MustDate("2025-01-12")
	h.availability.SetSlots(ctx, h.stationID, oldDay, h.service.ID(), []services.Slot{})
	h.availability.SetSlots(ctx, h.stationID, newDay, h.service.ID(), []services.Slot{})

	_, err = h.coordinator.Update(ctx, UpdateReservationCommand{
		ReservationID: created.ID,
		Start:         ptr(jan(12, 9, 0)),
		Role:          services.RoleAdmin,
	})
	require.NoError(t, err)

	_, ok := h.availability.GetSlots(ctx, h.stationID, oldDay, h.service.ID())
	assert.False(t, ok)
	_, ok = h.availability.GetSlots(ctx, h.stationID, newDay, h.service.ID())
	assert.False(t, ok)
}

func TestCoordinator_UpdateDetailsAndStatus(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	created, err := h.coordinator.Create(ctx, h.book(jan(10, 10, 0)))
	require.NoError(t, err)

	_, err = h.coordinator.Update(ctx, UpdateReservationCommand{
		ReservationID: created.ID,
		Customer:      &domain.Customer{Name: "Ada King", Phone: "+44 20 7946 0000"},
		Notes:         ptr("  roof box fitted "),
		Role:          services.RoleCustomer,
	})
	require.NoError(t, err)
	stored := h.load(t, created.ID)
	assert.Equal(t, "Ada King", stored.Customer().Name)
	assert.Equal(t, "roof box fitted", stored.Notes())

	_, err = h.coordinator.Update(ctx, UpdateReservationCommand{
		ReservationID: created.ID,
		Status:        ptr(domain.StatusCompleted),
		Role:          services.RoleCustomer,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "customers only cancel")

	updated, err := h.coordinator.Update(ctx, UpdateReservationCommand{
		ReservationID: created.ID,
		Status:        ptr(domain.StatusCancelled),
		CancelReason:  "travelling",
		Role:          services.RoleCustomer,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled.String(), updated.Status)

	_, err = h.coordinator.Update(ctx, UpdateReservationCommand{
		ReservationID: created.ID,
		Notes:         ptr("too late"),
		Role:          services.RoleAdmin,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "terminal reservations are read-only")

	_, err = h.coordinator.Update(ctx, UpdateReservationCommand{
		ReservationID: created.ID,
		Start:         ptr(jan(10, 12, 0)),
		Role:          services.RoleAdmin,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCoordinator_UpdateUnknownReservation(t *testing.T) {
	h := newHarness(t)

	_, err := h.coordinator.Update(context.Background(), UpdateReservationCommand{
		ReservationID: uuid.New(),
		Notes:         ptr("hello"),
		Role:          services.RoleAdmin,
	})

	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
}
