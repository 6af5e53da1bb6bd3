package queries

import (
	"context"
	"sort"

	"github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	"github.com/google/uuid"
)

// StationDTO is the read model of a station.
type StationDTO struct {
	ID                  uuid.UUID
	Name                string
	Active              bool
	UsesGenericSchedule bool
	OperatorID          *uuid.UUID
}

// ServiceDTO is the read model of a service.
type ServiceDTO struct {
	ID              uuid.UUID
	Name            string
	DurationMinutes int
	PriceCents      int64
	Active          bool
}

// ListStationsHandler lists stations by name.
type ListStationsHandler struct {
	stations domain.StationRepository
}

// NewListStationsHandler creates a new ListStationsHandler.
func NewListStationsHandler(stations domain.StationRepository) *ListStationsHandler {
	return &ListStationsHandler{stations: stations}
}

// Handle executes the query.
func (h *ListStationsHandler) Handle(ctx context.Context) ([]StationDTO, error) {
	stations, err := h.stations.List(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]StationDTO, 0, len(stations))
	for _, s := range stations {
		dtos = append(dtos, StationDTO{
			ID:                  s.ID(),
			Name:                s.Name(),
			Active:              s.IsActive(),
			UsesGenericSchedule: s.UsesGenericSchedule(),
			OperatorID:          s.OperatorID(),
		})
	}
	sort.SliceStable(dtos, func(i, j int) bool { return dtos[i].Name < dtos[j].Name })
	return dtos, nil
}

// ListServicesHandler lists services by name.
type ListServicesHandler struct {
	services domain.ServiceRepository
}

// NewListServicesHandler creates a new ListServicesHandler.
func NewListServicesHandler(services domain.ServiceRepository) *ListServicesHandler {
	return &ListServicesHandler{services: services}
}

// Handle executes the query.
func (h *ListServicesHandler) Handle(ctx context.Context) ([]ServiceDTO, error) {
	services, err := h.services.List(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]ServiceDTO, 0, len(services))
	for _, s := range services {
		dtos = append(dtos, ServiceDTO{
			ID:              s.ID(),
			Name:            s.Name(),
			DurationMinutes: s.DurationMinutes(),
			PriceCents:      s.PriceCents(),
			Active:          s.IsActive(),
		})
	}
	sort.SliceStable(dtos, func(i, j int) bool { return dtos[i].Name < dtos[j].Name })
	return dtos, nil
}
