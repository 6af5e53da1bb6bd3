package domain

import (
	"errors"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/stationbook/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrStationNameRequired = errors.New("station name is required")
	ErrServiceNameRequired = errors.New("service name is required")
	ErrInvalidDuration     = errors.New("service duration must be between 1 and 1440 minutes")
	ErrNegativePrice       = errors.New("service price must not be negative")
)

// Station is a bookable resource with its own business hours.
type Station struct {
	sharedDomain.BaseEntity
	name                string
	active              bool
	usesGenericSchedule bool
	operatorID          *uuid.UUID
}

// NewStation creates an active station.
func NewStation(name string, usesGenericSchedule bool, now time.Time) (*Station, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrStationNameRequired
	}
	return &Station{
		BaseEntity:          sharedDomain.NewBaseEntity(now),
		name:                name,
		active:              true,
		usesGenericSchedule: usesGenericSchedule,
	}, nil
}

// RehydrateStation recreates a station from persisted state.
func RehydrateStation(
	entity sharedDomain.BaseEntity,
	name string,
	active, usesGenericSchedule bool,
	operatorID *uuid.UUID,
) *Station {
	return &Station{
		BaseEntity:          entity,
		name:                name,
		active:              active,
		usesGenericSchedule: usesGenericSchedule,
		operatorID:          operatorID,
	}
}

func (s *Station) Name() string              { return s.name }
func (s *Station) IsActive() bool            { return s.active }
func (s *Station) UsesGenericSchedule() bool { return s.usesGenericSchedule }
func (s *Station) OperatorID() *uuid.UUID    { return s.operatorID }

// AssignOperator sets the operator responsible for the station.
func (s *Station) AssignOperator(operatorID uuid.UUID, now time.Time) {
	s.operatorID = &operatorID
	s.Touch(now)
}

// Deactivate takes the station out of booking.
func (s *Station) Deactivate(now time.Time) {
	s.active = false
	s.Touch(now)
}

// Activate puts the station back into booking.
func (s *Station) Activate(now time.Time) {
	s.active = true
	s.Touch(now)
}
