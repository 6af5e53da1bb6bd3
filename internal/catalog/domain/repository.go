package domain

import (
	"context"

	"github.com/google/uuid"
)

// StationRepository defines persistence for stations. Find methods return
// nil, nil when the station does not exist.
type StationRepository interface {
	Save(ctx context.Context, station *Station) error
	FindByID(ctx context.Context, id uuid.UUID) (*Station, error)
	List(ctx context.Context) ([]*Station, error)
}

// ServiceRepository defines persistence for services. Find methods return
// nil, nil when the service does not exist.
type ServiceRepository interface {
	Save(ctx context.Context, service *Service) error
	FindByID(ctx context.Context, id uuid.UUID) (*Service, error)
	List(ctx context.Context) ([]*Service, error)
}
