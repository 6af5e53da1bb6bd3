package domain

import (
	"time"

	"github.com/google/uuid"
)

// EffectiveSchedule is the outcome of resolving a station's rules for one
// date: either blocked, or open between Start and End. A nil
// *EffectiveSchedule means the station is closed with no rule at all.
type EffectiveSchedule struct {
	Date   Date
	Kind   RuleKind
	Start  TimeOfDay
	End    TimeOfDay
	RuleID uuid.UUID
	Global bool
}

// IsBlocked reports whether the date is closed by a Blocked rule.
func (s *EffectiveSchedule) IsBlocked() bool {
	return s != nil && s.Kind == RuleBlocked
}

// IsOpen reports whether the schedule has bookable hours.
func (s *EffectiveSchedule) IsOpen() bool {
	return s != nil && s.Kind != RuleBlocked && s.End > s.Start
}

// Window returns the opening hours as instants in loc. ok is false when the
// schedule is not open.
func (s *EffectiveSchedule) Window(loc *time.Location) (opens, closes time.Time, ok bool) {
	if !s.IsOpen() {
		return time.Time{}, time.Time{}, false
	}
	return s.Date.At(s.Start, loc), s.Date.At(s.End, loc), true
}

// Contains reports whether [start, end) lies inside the opening hours.
func (s *EffectiveSchedule) Contains(start, end time.Time, loc *time.Location) bool {
	opens, closes, ok := s.Window(loc)
	if !ok {
		return false
	}
	return !start.Before(opens) && !end.After(closes) && end.After(start)
}

// StationScope is what resolution needs to know about the station.
type StationScope struct {
	ID                  uuid.UUID
	UsesGenericSchedule bool
}

// Resolve picks the effective schedule for date, first match wins:
//  1. a Blocked rule of the station covering date
//  2. a Special rule of the station covering date
//  3. for stations on the generic schedule, a global Blocked covering date,
//     then a global Special covering date, else the global Regular rule for
//     the weekday
//  4. otherwise the station's own Regular rule for the weekday
//
// Among several matches of one layer the narrowest validity range wins, then
// the most recently updated rule. Nil means no rule applies.
func Resolve(station StationScope, stationRules, globalRules []*ScheduleRule, date Date) *EffectiveSchedule {
	if r := pick(stationRules, RuleBlocked, date); r != nil {
		return effective(r, date)
	}
	if r := pick(stationRules, RuleSpecial, date); r != nil {
		return effective(r, date)
	}
	if station.UsesGenericSchedule {
		if r := pick(globalRules, RuleBlocked, date); r != nil {
			return effective(r, date)
		}
		if r := pick(globalRules, RuleSpecial, date); r != nil {
			return effective(r, date)
		}
		if r := pick(globalRules, RuleRegular, date); r != nil {
			return effective(r, date)
		}
		return nil
	}
	if r := pick(stationRules, RuleRegular, date); r != nil {
		return effective(r, date)
	}
	return nil
}

func pick(rules []*ScheduleRule, kind RuleKind, date Date) *ScheduleRule {
	var best *ScheduleRule
	for _, r := range rules {
		if r.Kind() != kind || !r.AppliesOn(date) {
			continue
		}
		if best == nil || moreSpecific(r, best) {
			best = r
		}
	}
	return best
}

func moreSpecific(a, b *ScheduleRule) bool {
	if sa, sb := a.span(), b.span(); sa != sb {
		return sa < sb
	}
	if !a.UpdatedAt().Equal(b.UpdatedAt()) {
		return a.UpdatedAt().After(b.UpdatedAt())
	}
	return a.ID().String() < b.ID().String()
}

func effective(r *ScheduleRule, date Date) *EffectiveSchedule {
	return &EffectiveSchedule{
		Date:   date,
		Kind:   r.Kind(),
		Start:  r.Start(),
		End:    r.End(),
		RuleID: r.ID(),
		Global: r.IsGlobal(),
	}
}
