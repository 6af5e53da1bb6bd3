package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	"github.com/google/uuid"
)

// CreateStationCommand contains the data needed to register a station.
type CreateStationCommand struct {
	Name                string
	UsesGenericSchedule bool
	OperatorID          *uuid.UUID
}

// CreateStationHandler handles the CreateStationCommand.
type CreateStationHandler struct {
	stations domain.StationRepository
	now      func() time.Time
}

// NewCreateStationHandler creates a new CreateStationHandler.
func NewCreateStationHandler(stations domain.StationRepository) *CreateStationHandler {
	return &CreateStationHandler{stations: stations, now: time.Now}
}

// Handle executes the CreateStationCommand.
func (h *CreateStationHandler) Handle(ctx context.Context, cmd CreateStationCommand) (uuid.UUID, error) {
	now := h.now()
	station, err := domain.NewStation(cmd.Name, cmd.UsesGenericSchedule, now)
	if err != nil {
		return uuid.Nil, err
	}
	if cmd.OperatorID != nil {
		station.AssignOperator(*cmd.OperatorID, now)
	}
	if err := h.stations.Save(ctx, station); err != nil {
		return uuid.Nil, err
	}
	return station.ID(), nil
}
