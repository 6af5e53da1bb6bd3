package domain

import (
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/stationbook/internal/shared/domain"
)

// MaxServiceDuration bounds how long a single service may occupy a station.
const MaxServiceDuration = 24 * time.Hour

// Service is something a station performs, with a fixed duration and price.
type Service struct {
	sharedDomain.BaseEntity
	name            string
	durationMinutes int
	priceCents      int64
	active          bool
}

// NewService creates an active service.
func NewService(name string, durationMinutes int, priceCents int64, now time.Time) (*Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrServiceNameRequired
	}
	if durationMinutes < 1 || time.Duration(durationMinutes)*time.Minute > MaxServiceDuration {
		return nil, ErrInvalidDuration
	}
	if priceCents < 0 {
		return nil, ErrNegativePrice
	}
	return &Service{
		BaseEntity:      sharedDomain.NewBaseEntity(now),
		name:            name,
		durationMinutes: durationMinutes,
		priceCents:      priceCents,
		active:          true,
	}, nil
}

// RehydrateService recreates a service from persisted state.
func RehydrateService(entity sharedDomain.BaseEntity, name string, durationMinutes int, priceCents int64, active bool) *Service {
	return &Service{
		BaseEntity:      entity,
		name:            name,
		durationMinutes: durationMinutes,
		priceCents:      priceCents,
		active:          active,
	}
}

func (s *Service) Name() string         { return s.name }
func (s *Service) DurationMinutes() int { return s.durationMinutes }
func (s *Service) PriceCents() int64    { return s.priceCents }
func (s *Service) IsActive() bool       { return s.active }

// Duration returns the service duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.durationMinutes) * time.Minute
}

// Deactivate withdraws the service from booking.
func (s *Service) Deactivate(now time.Time) {
	s.active = false
	s.Touch(now)
}
