package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/stationbook/internal/shared/domain"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLRuleRepository implements domain.RuleRepository for PostgreSQL and SQLite.
// Times of day and dates are stored as "HH:MM" and "YYYY-MM-DD" text.
type SQLRuleRepository struct {
	conn database.Connection
}

// NewSQLRuleRepository creates a new schedule rule repository.
func NewSQLRuleRepository(conn database.Connection) *SQLRuleRepository {
	return &SQLRuleRepository{conn: conn}
}

const ruleColumns = `id, station_id, kind, weekday, start_time, end_time, valid_from, valid_to, created_at, updated_at`

// Save inserts the rule or replaces its definition.
func (r *SQLRuleRepository) Save(ctx context.Context, rule *domain.ScheduleRule) error {
	var weekday *int
	if wd := rule.Weekday(); wd != nil {
		v := int(*wd)
		weekday = &v
	}
	var start, end *string
	if rule.Kind() != domain.RuleBlocked {
		s, e := rule.Start().String(), rule.End().String()
		start, end = &s, &e
	}

	query := r.conn.Driver().Rebind(`
		INSERT INTO schedule_rules (` + ruleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			station_id = excluded.station_id,
			kind = excluded.kind,
			weekday = excluded.weekday,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			valid_from = excluded.valid_from,
			valid_to = excluded.valid_to,
			updated_at = excluded.updated_at
	`)
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		rule.ID(),
		rule.StationID(),
		string(rule.Kind()),
		weekday,
		start,
		end,
		dateText(rule.ValidFrom()),
		dateText(rule.ValidTo()),
		rule.CreatedAt(),
		rule.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save schedule rule %s: %w", rule.ID(), err)
	}
	return nil
}

// Delete removes a rule.
func (r *SQLRuleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		r.conn.Driver().Rebind(`DELETE FROM schedule_rules WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete schedule rule %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrScheduleRuleMissing
	}
	return nil
}

// FindByStation returns the rules of a station, or the global rules when
// stationID is nil.
func (r *SQLRuleRepository) FindByStation(ctx context.Context, stationID *uuid.UUID) ([]*domain.ScheduleRule, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var (
		rows database.Rows
		err  error
	)
	if stationID == nil {
		rows, err = exec.Query(ctx, `SELECT `+ruleColumns+` FROM schedule_rules WHERE station_id IS NULL ORDER BY created_at, id`)
	} else {
		rows, err = exec.Query(ctx,
			r.conn.Driver().Rebind(`SELECT `+ruleColumns+` FROM schedule_rules WHERE station_id = ? ORDER BY created_at, id`),
			*stationID)
	}
	if err != nil {
		return nil, fmt.Errorf("query schedule rules: %w", err)
	}
	defer rows.Close()

	var rules []*domain.ScheduleRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func scanRule(row database.Row) (*domain.ScheduleRule, error) {
	var (
		id                   uuid.UUID
		stationID            *uuid.UUID
		kind                 string
		weekday              *int
		start, end           *string
		validFrom, validTo   *string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &stationID, &kind, &weekday, &start, &end, &validFrom, &validTo, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("scan schedule rule: %w", err)
	}

	spec := domain.RuleSpec{StationID: stationID}
	var err error
	if spec.Kind, err = domain.ParseRuleKind(kind); err != nil {
		return nil, fmt.Errorf("rule %s: %w", id, err)
	}
	if weekday != nil {
		wd := time.Weekday(*weekday)
		spec.Weekday = &wd
	}
	if start != nil && end != nil {
		if spec.Start, err = domain.ParseTimeOfDay(*start); err != nil {
			return nil, fmt.Errorf("rule %s start: %w", id, err)
		}
		if spec.End, err = domain.ParseTimeOfDay(*end); err != nil {
			return nil, fmt.Errorf("rule %s end: %w", id, err)
		}
	}
	if spec.ValidFrom, err = parseDateText(validFrom); err != nil {
		return nil, fmt.Errorf("rule %s valid_from: %w", id, err)
	}
	if spec.ValidTo, err = parseDateText(validTo); err != nil {
		return nil, fmt.Errorf("rule %s valid_to: %w", id, err)
	}

	return domain.RehydrateScheduleRule(sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), spec), nil
}

func dateText(d *domain.Date) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDateText(s *string) (*domain.Date, error) {
	if s == nil {
		return nil, nil
	}
	d, err := domain.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
