package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	"github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/google/uuid"
)

// AddRuleCommand adds one layer of business hours. A nil StationID adds a
// global rule.
type AddRuleCommand struct {
	StationID *uuid.UUID
	Kind      domain.RuleKind
	Weekday   *time.Weekday
	Start     domain.TimeOfDay
	End       domain.TimeOfDay
	ValidFrom *domain.Date
	ValidTo   *domain.Date
}

// HoursChangeListener is told which station's hours changed; nil means the
// global rules changed.
type HoursChangeListener interface {
	InvalidateStation(ctx context.Context, stationID *uuid.UUID)
}

// AddRuleHandler handles AddRuleCommand and RemoveRule.
type AddRuleHandler struct {
	stations catalogDomain.StationRepository
	rules    domain.RuleRepository
	listener HoursChangeListener
	logger   *slog.Logger
	now      func() time.Time
}

// NewAddRuleHandler creates a new AddRuleHandler. listener may be nil.
func NewAddRuleHandler(
	stations catalogDomain.StationRepository,
	rules domain.RuleRepository,
	listener HoursChangeListener,
	logger *slog.Logger,
) *AddRuleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AddRuleHandler{
		stations: stations,
		rules:    rules,
		listener: listener,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle executes the AddRuleCommand.
func (h *AddRuleHandler) Handle(ctx context.Context, cmd AddRuleCommand) (uuid.UUID, error) {
	if cmd.StationID != nil {
		station, err := h.stations.FindByID(ctx, *cmd.StationID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("load station: %w", err)
		}
		if station == nil {
			return uuid.Nil, domain.ErrStationNotFound
		}
	}

	rule, err := domain.NewScheduleRule(domain.RuleSpec{
		StationID: cmd.StationID,
		Kind:      cmd.Kind,
		Weekday:   cmd.Weekday,
		Start:     cmd.Start,
		End:       cmd.End,
		ValidFrom: cmd.ValidFrom,
		ValidTo:   cmd.ValidTo,
	}, h.now())
	if err != nil {
		return uuid.Nil, err
	}
	if err := h.rules.Save(ctx, rule); err != nil {
		return uuid.Nil, err
	}

	h.changed(ctx, cmd.StationID)
	h.logger.InfoContext(ctx, "schedule rule added",
		"rule_id", rule.ID(),
		"kind", string(rule.Kind()),
		"global", rule.IsGlobal(),
	)
	return rule.ID(), nil
}

// RemoveRule deletes a rule and drops all cached availability.
func (h *AddRuleHandler) RemoveRule(ctx context.Context, ruleID uuid.UUID) error {
	if err := h.rules.Delete(ctx, ruleID); err != nil {
		return err
	}
	h.changed(ctx, nil)
	h.logger.InfoContext(ctx, "schedule rule removed", "rule_id", ruleID)
	return nil
}

func (h *AddRuleHandler) changed(ctx context.Context, stationID *uuid.UUID) {
	if h.listener != nil {
		h.listener.InvalidateStation(ctx, stationID)
	}
}
