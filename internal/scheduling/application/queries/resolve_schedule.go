package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/google/uuid"
)

// ScheduleDTO is the effective schedule of a station for one date.
type ScheduleDTO struct {
	StationID uuid.UUID
	Date      string
	Kind      string
	Opens     *time.Time
	Closes    *time.Time
}

// IsBlocked reports whether the date is closed by a Blocked rule.
func (d *ScheduleDTO) IsBlocked() bool {
	return d.Kind == string(domain.RuleBlocked)
}

// ResolveScheduleQuery asks for a station's hours on a date.
type ResolveScheduleQuery struct {
	StationID uuid.UUID
	Date      domain.Date
}

// Resolver is the schedule resolution the handler depends on.
type Resolver interface {
	Resolve(ctx context.Context, stationID uuid.UUID, date domain.Date) (*domain.EffectiveSchedule, error)
	Location() *time.Location
}

// ResolveScheduleHandler handles ResolveScheduleQuery.
type ResolveScheduleHandler struct {
	resolver Resolver
}

// NewResolveScheduleHandler creates a new ResolveScheduleHandler.
func NewResolveScheduleHandler(resolver Resolver) *ResolveScheduleHandler {
	return &ResolveScheduleHandler{resolver: resolver}
}

// Handle executes the query. A nil DTO means no rule applies and the
// station is closed.
func (h *ResolveScheduleHandler) Handle(ctx context.Context, query ResolveScheduleQuery) (*ScheduleDTO, error) {
	schedule, err := h.resolver.Resolve(ctx, query.StationID, query.Date)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, nil
	}

	dto := &ScheduleDTO{
		StationID: query.StationID,
		Date:      query.Date.String(),
		Kind:      string(schedule.Kind),
	}
	if opens, closes, ok := schedule.Window(h.resolver.Location()); ok {
		dto.Opens = &opens
		dto.Closes = &closes
	}
	return dto, nil
}
