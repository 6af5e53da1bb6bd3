package domain

import (
	"errors"
	"time"

	sharedDomain "github.com/felixgeelhaar/stationbook/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrInvalidRuleKind     = errors.New("unknown schedule rule kind")
	ErrInvalidHours        = errors.New("closing time must be after opening time")
	ErrWeekdayRequired     = errors.New("regular rules require a weekday")
	ErrValidityRequired    = errors.New("special and blocked rules require a validity range")
	ErrInvalidValidity     = errors.New("valid_from must not be after valid_to")
	ErrStationNotFound     = errors.New("station not found")
	ErrScheduleRuleMissing = errors.New("schedule rule not found")
)

// RuleKind classifies a schedule rule.
type RuleKind string

const (
	// RuleRegular is the weekly opening hours for one weekday.
	RuleRegular RuleKind = "regular"
	// RuleSpecial overrides the hours for a date range.
	RuleSpecial RuleKind = "special"
	// RuleBlocked closes a date range entirely.
	RuleBlocked RuleKind = "blocked"
)

// ParseRuleKind validates a persisted or user-supplied kind.
func ParseRuleKind(s string) (RuleKind, error) {
	switch k := RuleKind(s); k {
	case RuleRegular, RuleSpecial, RuleBlocked:
		return k, nil
	default:
		return "", ErrInvalidRuleKind
	}
}

// ScheduleRule is one layer of a station's business hours. A rule without a
// station applies globally to stations using the generic schedule.
type ScheduleRule struct {
	sharedDomain.BaseEntity
	stationID *uuid.UUID
	kind      RuleKind
	weekday   *time.Weekday
	start     TimeOfDay
	end       TimeOfDay
	validFrom *Date
	validTo   *Date
}

// RuleSpec carries the fields a rule is built from.
type RuleSpec struct {
	StationID *uuid.UUID
	Kind      RuleKind
	Weekday   *time.Weekday
	Start     TimeOfDay
	End       TimeOfDay
	ValidFrom *Date
	ValidTo   *Date
}

// NewScheduleRule validates spec and creates a rule.
func NewScheduleRule(spec RuleSpec, now time.Time) (*ScheduleRule, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	return newRule(sharedDomain.NewBaseEntity(now), spec), nil
}

// NewRegularRule creates weekly hours for a weekday.
func NewRegularRule(stationID *uuid.UUID, weekday time.Weekday, start, end TimeOfDay, now time.Time) (*ScheduleRule, error) {
	return NewScheduleRule(RuleSpec{
		StationID: stationID,
		Kind:      RuleRegular,
		Weekday:   &weekday,
		Start:     start,
		End:       end,
	}, now)
}

// NewSpecialRule creates replacement hours for an inclusive date range.
func NewSpecialRule(stationID *uuid.UUID, from, to Date, start, end TimeOfDay, now time.Time) (*ScheduleRule, error) {
	return NewScheduleRule(RuleSpec{
		StationID: stationID,
		Kind:      RuleSpecial,
		Start:     start,
		End:       end,
		ValidFrom: &from,
		ValidTo:   &to,
	}, now)
}

// NewBlockedRule closes an inclusive date range.
func NewBlockedRule(stationID *uuid.UUID, from, to Date, now time.Time) (*ScheduleRule, error) {
	return NewScheduleRule(RuleSpec{
		StationID: stationID,
		Kind:      RuleBlocked,
		ValidFrom: &from,
		ValidTo:   &to,
	}, now)
}

// RehydrateScheduleRule recreates a rule from persisted state.
func RehydrateScheduleRule(entity sharedDomain.BaseEntity, spec RuleSpec) *ScheduleRule {
	return newRule(entity, spec)
}

func newRule(entity sharedDomain.BaseEntity, spec RuleSpec) *ScheduleRule {
	rule := &ScheduleRule{
		BaseEntity: entity,
		stationID:  spec.StationID,
		kind:       spec.Kind,
		weekday:    spec.Weekday,
		validFrom:  spec.ValidFrom,
		validTo:    spec.ValidTo,
	}
	if spec.Kind != RuleBlocked {
		rule.start = spec.Start
		rule.end = spec.End
	}
	return rule
}

func (s RuleSpec) validate() error {
	if _, err := ParseRuleKind(string(s.Kind)); err != nil {
		return err
	}
	if s.Kind != RuleBlocked {
		if s.Start < 0 || s.End > MinutesPerDay || s.End <= s.Start {
			return ErrInvalidHours
		}
	}
	if s.Kind == RuleRegular {
		if s.Weekday == nil || *s.Weekday < time.Sunday || *s.Weekday > time.Saturday {
			return ErrWeekdayRequired
		}
	} else if s.ValidFrom == nil || s.ValidTo == nil {
		return ErrValidityRequired
	}
	if s.ValidFrom != nil && s.ValidTo != nil && s.ValidFrom.After(*s.ValidTo) {
		return ErrInvalidValidity
	}
	return nil
}

func (r *ScheduleRule) StationID() *uuid.UUID  { return r.stationID }
func (r *ScheduleRule) Kind() RuleKind         { return r.kind }
func (r *ScheduleRule) Weekday() *time.Weekday { return r.weekday }
func (r *ScheduleRule) Start() TimeOfDay       { return r.start }
func (r *ScheduleRule) End() TimeOfDay         { return r.end }
func (r *ScheduleRule) ValidFrom() *Date       { return r.validFrom }
func (r *ScheduleRule) ValidTo() *Date         { return r.validTo }
func (r *ScheduleRule) IsGlobal() bool         { return r.stationID == nil }

// Covers reports whether date falls inside the rule's validity range. Open
// ends are unbounded.
func (r *ScheduleRule) Covers(date Date) bool {
	if r.validFrom != nil && date.Before(*r.validFrom) {
		return false
	}
	if r.validTo != nil && date.After(*r.validTo) {
		return false
	}
	return true
}

// AppliesOn reports whether the rule is in force on date.
func (r *ScheduleRule) AppliesOn(date Date) bool {
	if !r.Covers(date) {
		return false
	}
	if r.kind == RuleRegular {
		return r.weekday != nil && *r.weekday == date.Weekday()
	}
	return true
}

// span is the validity range length in days, used to prefer the most
// specific rule; open ranges count as unbounded.
func (r *ScheduleRule) span() int {
	if r.validFrom == nil || r.validTo == nil {
		return int(^uint(0) >> 1)
	}
	from := r.validFrom.StartOfDay(time.UTC)
	to := r.validTo.StartOfDay(time.UTC)
	return int(to.Sub(from).Hours() / 24)
}
