package domain

import (
	"context"

	"github.com/google/uuid"
)

// RuleRepository defines persistence for schedule rules.
type RuleRepository interface {
	Save(ctx context.Context, rule *ScheduleRule) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByStation returns the station's own rules; a nil stationID returns
	// the global rules.
	FindByStation(ctx context.Context, stationID *uuid.UUID) ([]*ScheduleRule, error)
}
