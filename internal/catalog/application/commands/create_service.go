package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	"github.com/google/uuid"
)

// CreateServiceCommand contains the data needed to add a bookable service.
type CreateServiceCommand struct {
	Name            string
	DurationMinutes int
	PriceCents      int64
}

// CreateServiceHandler handles the CreateServiceCommand.
type CreateServiceHandler struct {
	services domain.ServiceRepository
	now      func() time.Time
}

// NewCreateServiceHandler creates a new CreateServiceHandler.
func NewCreateServiceHandler(services domain.ServiceRepository) *CreateServiceHandler {
	return &CreateServiceHandler{services: services, now: time.Now}
}

// Handle executes the CreateServiceCommand.
func (h *CreateServiceHandler) Handle(ctx context.Context, cmd CreateServiceCommand) (uuid.UUID, error) {
	service, err := domain.NewService(cmd.Name, cmd.DurationMinutes, cmd.PriceCents, h.now())
	if err != nil {
		return uuid.Nil, err
	}
	if err := h.services.Save(ctx, service); err != nil {
		return uuid.Nil, err
	}
	return service.ID(), nil
}
