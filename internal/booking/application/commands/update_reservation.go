package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/stationbook/internal/shared/application"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
)

// UpdateReservationCommand changes some fields of a reservation. Nil fields
// are left as they are.
type UpdateReservationCommand struct {
	ReservationID uuid.UUID
	StationID     *uuid.UUID
	Start         *time.Time
	Status        *domain.Status
	CancelReason  string
	Customer      *domain.Customer
	Notes         *string
	ActorID       uuid.UUID
	Role          services.Role
}

func (cmd UpdateReservationCommand) moves(r *domain.Reservation) bool {
	if cmd.StationID != nil && *cmd.StationID != r.StationID() {
		return true
	}
	return cmd.Start != nil && !domain.NormalizeStart(*cmd.Start).Equal(r.Start())
}

// Update applies the command. Moving to another station or start claims the
// new slot the way Create does, ignoring the reservation's own interval.
// Status changes must be legal and allowed for the role.
func (c *Coordinator) Update(ctx context.Context, cmd UpdateReservationCommand) (result *ReservationResult, err error) {
	timer := c.startTimer("update")
	defer func() { timer.Stop(outcome(err)) }()

	current, err := c.loadReservation(ctx, cmd.ReservationID)
	if err != nil {
		return nil, err
	}
	before := c.dayOf(current.StationID(), current.Start())

	if cmd.Status != nil && *cmd.Status != current.Status() {
		if err := c.authorize(cmd.Role, current, *cmd.Status); err != nil {
			return nil, err
		}
	}

	stationID, start := current.StationID(), current.Start()
	if cmd.StationID != nil {
		stationID = *cmd.StationID
	}
	if cmd.Start != nil {
		start = domain.NormalizeStart(*cmd.Start)
	}
	moving := cmd.moves(current)
	minutes := current.DurationMinutes()

	if moving {
		if current.Status().IsTerminal() {
			return nil, domain.InvalidState("reservation %s is %s and cannot be rescheduled", current.Code(), current.Status())
		}
		if _, err := c.loadStation(ctx, stationID); err != nil {
			return nil, err
		}
		release, err := c.claim(ctx, stationID, start, minutes)
		if err != nil {
			return nil, err
		}
		defer release()

		if err := c.checkHours(ctx, stationID, start, minutes); err != nil {
			return nil, err
		}
	}

	var updated *domain.Reservation
	from := current.Status()
	err = sharedApplication.WithUnitOfWork(ctx, c.uow, func(txCtx context.Context) error {
		r, err := c.loadReservation(txCtx, cmd.ReservationID)
		if err != nil {
			return err
		}
		if r.Version() != current.Version() {
			return domain.Conflict("reservation %s was changed by someone else, reload and retry", r.Code())
		}

		now := c.now()
		if cmd.Customer != nil {
			if err := r.UpdateCustomer(*cmd.Customer, now); err != nil {
				return err
			}
		}
		if cmd.Notes != nil {
			if err := r.SetNotes(*cmd.Notes, now); err != nil {
				return err
			}
		}
		if moving {
			id := r.ID()
			if err := c.ensureFree(txCtx, "recheck", stationID, start, minutes, &id); err != nil {
				return err
			}
			if err := r.Reschedule(stationID, start, now); err != nil {
				return err
			}
		}
		if cmd.Status != nil && *cmd.Status != r.Status() {
			if err := r.TransitionTo(*cmd.Status, cmd.CancelReason, now); err != nil {
				return err
			}
		}

		if err := c.persist(txCtx, r, cmd.ActorID); err != nil {
			return err
		}
		updated = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, before, c.dayOf(updated.StationID(), updated.Start()))
	if updated.Status() != from {
		c.metrics.Counter(observability.MetricReservationsTransitions, 1,
			observability.T("from", from.String()),
			observability.T("to", updated.Status().String()),
		)
	}
	observability.LogOperation(c.logger, "update").InfoContext(ctx, "reservation updated",
		"reservation_id", updated.ID(),
		"code", updated.Code(),
		"station_id", updated.StationID(),
		"start", updated.Start(),
		"status", updated.Status().String(),
	)
	return resultOf(updated), nil
}

// authorize checks that moving r to next is legal and allowed for role.
func (c *Coordinator) authorize(role services.Role, r *domain.Reservation, next domain.Status) error {
	if !r.Status().CanTransitionTo(next) {
		return domain.InvalidState("cannot move reservation %s from %s to %s", r.Code(), r.Status(), next)
	}
	if !c.policy.Allow(role, r.Status(), next) {
		return domain.InvalidState("role %q may not move reservation %s from %s to %s", role, r.Code(), r.Status(), next)
	}
	return nil
}
