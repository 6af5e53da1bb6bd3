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

// SQLServiceRepository implements domain.ServiceRepository for PostgreSQL and SQLite.
type SQLServiceRepository struct {
	conn database.Connection
}

// NewSQLServiceRepository creates a new service repository.
func NewSQLServiceRepository(conn database.Connection) *SQLServiceRepository {
	return &SQLServiceRepository{conn: conn}
}

const serviceColumns = `id, name, duration_minutes, price_cents, active, created_at, updated_at`

// Save inserts the service or updates it in place.
func (r *SQLServiceRepository) Save(ctx context.Context, service *domain.Service) error {
	query := r.conn.Driver().Rebind(`
		INSERT INTO services (` + serviceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			duration_minutes = excluded.duration_minutes,
			price_cents = excluded.price_cents,
			active = excluded.active,
			updated_at = excluded.updated_at
	`)
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, query,
		service.ID(),
		service.Name(),
		service.DurationMinutes(),
		service.PriceCents(),
		service.IsActive(),
		service.CreatedAt(),
		service.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save service %s: %w", service.ID(), err)
	}
	return nil
}

// FindByID retrieves a service by its ID.
func (r *SQLServiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	query := r.conn.Driver().Rebind(`SELECT ` + serviceColumns + ` FROM services WHERE id = ?`)
	service, err := scanService(database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find service %s: %w", id, err)
	}
	return service, nil
}

// List returns all services ordered by name.
func (r *SQLServiceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx,
		`SELECT `+serviceColumns+` FROM services ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []*domain.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, service)
	}
	return services, rows.Err()
}

func scanService(row database.Row) (*domain.Service, error) {
	var (
		id                   uuid.UUID
		name                 string
		durationMinutes      int
		priceCents           int64
		active               bool
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &durationMinutes, &priceCents, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return domain.RehydrateService(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name, durationMinutes, priceCents, active,
	), nil
}
