package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	sharedApplication "github.com/felixgeelhaar/stationbook/internal/shared/application"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
)

// CreateReservationCommand books a service on a station.
type CreateReservationCommand struct {
	StationID   uuid.UUID
	ServiceID   uuid.UUID
	Start       time.Time
	Customer    domain.Customer
	RequesterID *uuid.UUID
	Notes       string
}

// Create books the slot and returns the confirmed reservation. A slot taken
// by someone else, before or while waiting for the lock, is a Conflict.
func (c *Coordinator) Create(ctx context.Context, cmd CreateReservationCommand) (result *ReservationResult, err error) {
	timer := c.startTimer("create")
	defer func() { timer.Stop(outcome(err)) }()

	service, err := c.loadService(ctx, cmd.ServiceID)
	if err != nil {
		return nil, err
	}
	if _, err := c.loadStation(ctx, cmd.StationID); err != nil {
		return nil, err
	}

	now := c.now()
	start := domain.NormalizeStart(cmd.Start)
	minutes := service.DurationMinutes()
	if err := c.checkWindow(start, now); err != nil {
		return nil, err
	}

	// Optimistic pre-check outside the lock.
	if err := c.ensureFree(ctx, "precheck", cmd.StationID, start, minutes, nil); err != nil {
		return nil, err
	}

	release, err := c.claim(ctx, cmd.StationID, start, minutes)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := c.checkHours(ctx, cmd.StationID, start, minutes); err != nil {
		return nil, err
	}

	actorID := uuid.Nil
	if cmd.RequesterID != nil {
		actorID = *cmd.RequesterID
	}

	var reservation *domain.Reservation
	err = sharedApplication.WithUnitOfWork(ctx, c.uow, func(txCtx context.Context) error {
		if err := c.ensureFree(txCtx, "recheck", cmd.StationID, start, minutes, nil); err != nil {
			return err
		}

		_, err := c.codes.Place(txCtx, func(code string) error {
			r, err := domain.NewReservation(domain.NewReservationParams{
				Code:            code,
				StationID:       cmd.StationID,
				ServiceID:       service.ID(),
				Start:           start,
				DurationMinutes: minutes,
				PriceCents:      service.PriceCents(),
				Customer:        cmd.Customer,
				RequesterID:     cmd.RequesterID,
				Notes:           cmd.Notes,
			}, now)
			if err != nil {
				return err
			}
			if err := c.reservations.Create(txCtx, r); err != nil {
				return err
			}
			reservation = r
			return nil
		})
		if err != nil {
			return err
		}
		return c.record(txCtx, reservation, actorID)
	})
	if err != nil {
		return nil, err
	}

	c.invalidate(ctx, c.dayOf(cmd.StationID, start))
	c.metrics.Counter(observability.MetricReservationsCreated, 1)
	observability.LogOperation(c.logger, "create").InfoContext(ctx, "reservation created",
		"reservation_id", reservation.ID(),
		"code", reservation.Code(),
		"station_id", cmd.StationID,
		"start", start,
	)
	return resultOf(reservation), nil
}
