package commands

import (
	"context"

	"github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/stationbook/internal/shared/application"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
)

// ConfirmReservationCommand confirms a pending reservation.
type ConfirmReservationCommand struct {
	ReservationID uuid.UUID
	ActorID       uuid.UUID
	Role          services.Role
}

// CancelReservationCommand cancels a pending or confirmed reservation.
type CancelReservationCommand struct {
	ReservationID uuid.UUID
	Reason        string
	ActorID       uuid.UUID
	Role          services.Role
}

// CompleteReservationCommand marks a confirmed reservation as delivered.
type CompleteReservationCommand struct {
	ReservationID uuid.UUID
	ActorID       uuid.UUID
	Role          services.Role
}

// Confirm moves a pending reservation to confirmed.
func (c *Coordinator) Confirm(ctx context.Context, cmd ConfirmReservationCommand) (*ReservationResult, error) {
	return c.transition(ctx, "confirm", cmd.ReservationID, domain.StatusConfirmed, "", cmd.ActorID, cmd.Role)
}

// Cancel frees the slot of a reservation. Completed and cancelled
// reservations are rejected with InvalidState and left unchanged.
func (c *Coordinator) Cancel(ctx context.Context, cmd CancelReservationCommand) (*ReservationResult, error) {
	return c.transition(ctx, "cancel", cmd.ReservationID, domain.StatusCancelled, cmd.Reason, cmd.ActorID, cmd.Role)
}

// Complete moves a confirmed reservation to completed.
func (c *Coordinator) Complete(ctx context.Context, cmd CompleteReservationCommand) (*ReservationResult, error) {
	return c.transition(ctx, "complete", cmd.ReservationID, domain.StatusCompleted, "", cmd.ActorID, cmd.Role)
}

func (c *Coordinator) transition(
	ctx context.Context,
	operation string,
	id uuid.UUID,
	next domain.Status,
	reason string,
	actorID uuid.UUID,
	role services.Role,
) (result *ReservationResult, err error) {
	timer := c.startTimer(operation)
	defer func() { timer.Stop(outcome(err)) }()

	var (
		r    *domain.Reservation
		from domain.Status
	)
	err = sharedApplication.WithUnitOfWork(ctx, c.uow, func(txCtx context.Context) error {
		var err error
		if r, err = c.loadReservation(txCtx, id); err != nil {
			return err
		}
		from = r.Status()

		// Illegal moves are rejected by the aggregate below.
		if from.CanTransitionTo(next) && !c.policy.Allow(role, from, next) {
			return domain.InvalidState("role %q may not move reservation %s from %s to %s", role, r.Code(), from, next)
		}

		now := c.now()
		switch next {
		case domain.StatusConfirmed:
			err = r.Confirm(now)
		case domain.StatusCompleted:
			err = r.Complete(now)
		default:
			err = r.Cancel(reason, now)
		}
		if err != nil {
			return err
		}
		return c.persist(txCtx, r, actorID)
	})
	if err != nil {
		return nil, err
	}

	if next == domain.StatusCancelled {
		c.invalidate(ctx, c.dayOf(r.StationID(), r.Start()))
	}
	c.metrics.Counter(observability.MetricReservationsTransitions, 1,
		observability.T("from", from.String()),
		observability.T("to", next.String()),
	)
	observability.LogOperation(c.logger, operation).InfoContext(ctx, "reservation transitioned",
		"reservation_id", r.ID(),
		"code", r.Code(),
		"station_id", r.StationID(),
		"status", r.Status().String(),
	)
	return resultOf(r), nil
}
