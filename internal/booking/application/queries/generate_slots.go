package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/google/uuid"
)

// GenerateSlotsQuery asks for the start times of a service on a station day.
type GenerateSlotsQuery struct {
	StationID uuid.UUID
	Date      schedulingDomain.Date
	ServiceID uuid.UUID
}

// SlotDTO is one candidate start time in the booking time zone.
type SlotDTO struct {
	Time      time.Time
	Available bool
	Reason    string
}

// SlotSource generates slots.
type SlotSource interface {
	GenerateSlots(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date, serviceID uuid.UUID) ([]services.Slot, error)
}

// GenerateSlotsHandler handles GenerateSlotsQuery.
type GenerateSlotsHandler struct {
	slots    SlotSource
	location *time.Location
}

// NewGenerateSlotsHandler creates a new GenerateSlotsHandler. A nil location
// means UTC.
func NewGenerateSlotsHandler(slots SlotSource, location *time.Location) *GenerateSlotsHandler {
	if location == nil {
		location = time.UTC
	}
	return &GenerateSlotsHandler{slots: slots, location: location}
}

// Handle executes the query.
func (h *GenerateSlotsHandler) Handle(ctx context.Context, query GenerateSlotsQuery) ([]SlotDTO, error) {
	slots, err := h.slots.GenerateSlots(ctx, query.StationID, query.Date, query.ServiceID)
	if err != nil {
		return nil, err
	}

	dtos := make([]SlotDTO, len(slots))
	for i, s := range slots {
		dtos[i] = SlotDTO{
			Time:      s.Start.In(h.location),
			Available: s.Available,
			Reason:    s.Reason,
		}
	}
	return dtos, nil
}
