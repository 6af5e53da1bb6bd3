package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	"github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ScheduleResolver loads a station and its rules and resolves the effective
// hours for a date in the booking time zone.
type ScheduleResolver struct {
	stations catalogDomain.StationRepository
	rules    domain.RuleRepository
	location *time.Location
	logger   *slog.Logger
}

// NewScheduleResolver creates a resolver. A nil location means UTC.
func NewScheduleResolver(
	stations catalogDomain.StationRepository,
	rules domain.RuleRepository,
	location *time.Location,
	logger *slog.Logger,
) *ScheduleResolver {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleResolver{
		stations: stations,
		rules:    rules,
		location: location,
		logger:   logger,
	}
}

// Location returns the booking time zone dates are interpreted in.
func (r *ScheduleResolver) Location() *time.Location {
	return r.location
}

// Resolve returns the effective schedule of the station on date. A nil
// schedule with a nil error means the station is closed that day.
func (r *ScheduleResolver) Resolve(ctx context.Context, stationID uuid.UUID, date domain.Date) (*domain.EffectiveSchedule, error) {
	station, err := r.stations.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("load station: %w", err)
	}
	if station == nil {
		return nil, domain.ErrStationNotFound
	}

	own, err := r.rules.FindByStation(ctx, &stationID)
	if err != nil {
		return nil, fmt.Errorf("load station rules: %w", err)
	}

	var global []*domain.ScheduleRule
	if station.UsesGenericSchedule() {
		if global, err = r.rules.FindByStation(ctx, nil); err != nil {
			return nil, fmt.Errorf("load global rules: %w", err)
		}
	}

	schedule := domain.Resolve(domain.StationScope{
		ID:                  stationID,
		UsesGenericSchedule: station.UsesGenericSchedule(),
	}, own, global, date)

	r.logger.DebugContext(ctx, "schedule resolved",
		"station_id", stationID,
		"date", date.String(),
		"kind", kindOf(schedule),
	)
	return schedule, nil
}

func kindOf(s *domain.EffectiveSchedule) string {
	if s == nil {
		return "none"
	}
	return string(s.Kind)
}
