package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	sharedDomain "github.com/felixgeelhaar/stationbook/internal/shared/domain"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLReservationRepository implements domain.ReservationRepository for
// PostgreSQL and SQLite.
type SQLReservationRepository struct {
	conn database.Connection
}

// NewSQLReservationRepository creates a new reservation repository.
func NewSQLReservationRepository(conn database.Connection) *SQLReservationRepository {
	return &SQLReservationRepository{conn: conn}
}

const reservationColumns = `id, code, station_id, service_id, start_time, duration_minutes, price_cents,
	status, customer_name, customer_email, customer_phone, requester_id, loyalty_points,
	notes, cancel_reason, confirmed_at, completed_at, cancelled_at, version, created_at, updated_at`

func (r *SQLReservationRepository) exec(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

func (r *SQLReservationRepository) q(query string) string {
	return r.conn.Driver().Rebind(query)
}

// Create inserts a new reservation at version 1. A taken code is reported as
// domain.ErrDuplicateCode.
func (r *SQLReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	c := res.Customer()
	result, err := r.exec(ctx).Exec(ctx, r.q(`
		INSERT INTO reservations (`+reservationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT (code) DO NOTHING
	`),
		res.ID(),
		res.Code(),
		res.StationID(),
		res.ServiceID(),
		res.Start(),
		res.DurationMinutes(),
		res.PriceCents(),
		string(res.Status()),
		c.Name,
		c.Email,
		c.Phone,
		res.RequesterID(),
		res.LoyaltyPoints(),
		res.Notes(),
		res.CancelReason(),
		res.ConfirmedAt(),
		res.CompletedAt(),
		res.CancelledAt(),
		res.CreatedAt(),
		res.UpdatedAt(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, res.Code())
		}
		return fmt.Errorf("insert reservation %s: %w", res.ID(), err)
	}
	// A skipped insert leaves the surrounding transaction usable, unlike a
	// raised unique violation on PostgreSQL.
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert reservation %s: %w", res.ID(), err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, res.Code())
	}
	res.SetVersion(1)
	return nil
}

// Update writes the mutable columns guarded by the loaded version.
func (r *SQLReservationRepository) Update(ctx context.Context, res *domain.Reservation) error {
	c := res.Customer()
	result, err := r.exec(ctx).Exec(ctx, r.q(`
		UPDATE reservations SET
			station_id = ?,
			start_time = ?,
			status = ?,
			customer_name = ?,
			customer_email = ?,
			customer_phone = ?,
			notes = ?,
			cancel_reason = ?,
			confirmed_at = ?,
			completed_at = ?,
			cancelled_at = ?,
			updated_at = ?,
			version = version + 1
		WHERE id = ? AND version = ?
	`),
		res.StationID(),
		res.Start(),
		string(res.Status()),
		c.Name,
		c.Email,
		c.Phone,
		res.Notes(),
		res.CancelReason(),
		res.ConfirmedAt(),
		res.CompletedAt(),
		res.CancelledAt(),
		res.UpdatedAt(),
		res.ID(),
		res.Version(),
	)
	if err != nil {
		return fmt.Errorf("update reservation %s: %w", res.ID(), err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update reservation %s: %w", res.ID(), err)
	}
	if n == 0 {
		return domain.ErrOptimisticLocking
	}
	res.SetVersion(res.Version() + 1)
	return nil
}

// FindByID retrieves a reservation by its ID.
func (r *SQLReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return r.findOne(ctx, `id = ?`, id)
}

// FindByCode retrieves a reservation by its human-facing code.
func (r *SQLReservationRepository) FindByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	return r.findOne(ctx, `code = ?`, code)
}

func (r *SQLReservationRepository) findOne(ctx context.Context, where string, arg any) (*domain.Reservation, error) {
	row := r.exec(ctx).QueryRow(ctx, r.q(`SELECT `+reservationColumns+` FROM reservations WHERE `+where), arg)
	res, err := scanReservation(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find reservation: %w", err)
	}
	return res, nil
}

// CodeExists reports whether a reservation already uses code.
func (r *SQLReservationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	err := r.exec(ctx).QueryRow(ctx, r.q(`SELECT COUNT(*) FROM reservations WHERE code = ?`), code).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check reservation code: %w", err)
	}
	return n > 0, nil
}

// FindActiveStartingBetween returns the non-cancelled reservations of a
// station with from <= start_time < to, ordered by start.
func (r *SQLReservationRepository) FindActiveStartingBetween(ctx context.Context, stationID uuid.UUID, from, to time.Time) ([]*domain.Reservation, error) {
	rows, err := r.exec(ctx).Query(ctx, r.q(`
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE station_id = ?
		  AND start_time >= ?
		  AND start_time < ?
		  AND status <> ?
		ORDER BY start_time, id
	`), stationID, minuteFloor(from), minuteCeil(to), string(domain.StatusCancelled))
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Starts are stored at minute precision, so bounds are aligned the same way
// to keep SQLite's text timestamps comparable.
func minuteFloor(t time.Time) time.Time { return t.UTC().Truncate(time.Minute) }

func minuteCeil(t time.Time) time.Time {
	f := minuteFloor(t)
	if f.Equal(t) {
		return f
	}
	return f.Add(time.Minute)
}

func scanReservation(row database.Row) (*domain.Reservation, error) {
	var (
		id                   uuid.UUID
		state                domain.ReservationState
		status               string
		version              int
		createdAt, updatedAt time.Time
	)
	err := row.Scan(
		&id,
		&state.Code,
		&state.StationID,
		&state.ServiceID,
		&state.Start,
		&state.DurationMinutes,
		&state.PriceCents,
		&status,
		&state.Customer.Name,
		&state.Customer.Email,
		&state.Customer.Phone,
		&state.RequesterID,
		&state.LoyaltyPoints,
		&state.Notes,
		&state.CancelReason,
		&state.ConfirmedAt,
		&state.CompletedAt,
		&state.CancelledAt,
		&version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if state.Status, err = domain.ParseStatus(status); err != nil {
		return nil, err
	}
	root := sharedDomain.RehydrateBaseAggregateRoot(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		version,
	)
	return domain.RehydrateReservation(root, state), nil
}
