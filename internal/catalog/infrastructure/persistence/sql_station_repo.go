package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	sharedDomain "github.com/felixgeelhaar/stationbook/internal/shared/domain"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

// SQLStationRepository implements domain.StationRepository for PostgreSQL and SQLite.
type SQLStationRepository struct {
	conn database.Connection
}

// NewSQLStationRepository creates a new station repository.
func NewSQLStationRepository(conn database.Connection) *SQLStationRepository {
	return &SQLStationRepository{conn: conn}
}

const stationColumns = `id, name, active, uses_generic_schedule, operator_id, created_at, updated_at`

// Save inserts the station or updates it in place.
func (r *SQLStationRepository) Save(ctx context.Context, station *domain.Station) error {
	query := r.conn.Driver().Rebind(`
		INSERT INTO stations (` + stationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			active = excluded.active,
			uses_generic_schedule = excluded.uses_generic_schedule,
			operator_id = excluded.operator_id,
			updated_at = excluded.updated_at
	`)
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		station.ID(),
		station.Name(),
		station.IsActive(),
		station.UsesGenericSchedule(),
		station.OperatorID(),
		station.CreatedAt(),
		station.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save station %s: %w", station.ID(), err)
	}
	return nil
}

// FindByID retrieves a station by its ID.
func (r *SQLStationRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Station, error) {
	query := r.conn.Driver().Rebind(`SELECT ` + stationColumns + ` FROM stations WHERE id = ?`)
	station, err := scanStation(database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find station %s: %w", id, err)
	}
	return station, nil
}

// List returns all stations ordered by name.
func (r *SQLStationRepository) List(ctx context.Context) ([]*domain.Station, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+stationColumns+` FROM stations ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	defer rows.Close()

	var stations []*domain.Station
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, station)
	}
	return stations, rows.Err()
}

func scanStation(row database.Row) (*domain.Station, error) {
	var (
		id                   uuid.UUID
		name                 string
		active, generic      bool
		operatorID           *uuid.UUID
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &active, &generic, &operatorID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateStation(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name, active, generic, operatorID,
	), nil
}
