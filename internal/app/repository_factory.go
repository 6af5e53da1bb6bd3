package app

import (
	"fmt"

	bookingDomain "github.com/felixgeelhaar/stationbook/internal/booking/domain"
	bookingPersistence "github.com/felixgeelhaar/stationbook/internal/booking/infrastructure/persistence"
	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	catalogPersistence "github.com/felixgeelhaar/stationbook/internal/catalog/infrastructure/persistence"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	schedulingPersistence "github.com/felixgeelhaar/stationbook/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/stationbook/internal/shared/application"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/outbox"
)

// Repositories groups the repositories of every bounded context.
type Repositories struct {
	Stations     catalogDomain.StationRepository
	Services     catalogDomain.ServiceRepository
	Rules        schedulingDomain.RuleRepository
	Reservations bookingDomain.ReservationRepository
	Outbox       outbox.Repository
}

// RepositoryFactory creates repositories based on the database driver. The
// SQL repositories rebind their placeholders per driver, so both supported
// drivers share one implementation.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// StationRepository creates a station repository for the configured driver.
func (f *RepositoryFactory) StationRepository() (catalogDomain.StationRepository, error) {
	if err := f.supported(); err != nil {
		return nil, err
	}
	return catalogPersistence.NewSQLStationRepository(f.conn), nil
}

// ServiceRepository creates a service repository for the configured driver.
func (f *RepositoryFactory) ServiceRepository() (catalogDomain.ServiceRepository, error) {
	if err := f.supported(); err != nil {
		return nil, err
	}
	return catalogPersistence.NewSQLServiceRepository(f.conn), nil
}

// RuleRepository creates a schedule rule repository for the configured driver.
func (f *RepositoryFactory) RuleRepository() (schedulingDomain.RuleRepository, error) {
	if err := f.supported(); err != nil {
		return nil, err
	}
	return schedulingPersistence.NewSQLRuleRepository(f.conn), nil
}

// ReservationRepository creates a reservation repository for the configured driver.
func (f *RepositoryFactory) ReservationRepository() (bookingDomain.ReservationRepository, error) {
	if err := f.supported(); err != nil {
		return nil, err
	}
	return bookingPersistence.NewSQLReservationRepository(f.conn), nil
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	if err := f.supported(); err != nil {
		return nil, err
	}
	return outbox.NewSQLRepository(f.conn), nil
}

// Repositories creates every repository.
func (f *RepositoryFactory) Repositories() (*Repositories, error) {
	if err := f.supported(); err != nil {
		return nil, err
	}
	return &Repositories{
		Stations:     catalogPersistence.NewSQLStationRepository(f.conn),
		Services:     catalogPersistence.NewSQLServiceRepository(f.conn),
		Rules:        schedulingPersistence.NewSQLRuleRepository(f.conn),
		Reservations: bookingPersistence.NewSQLReservationRepository(f.conn),
		Outbox:       outbox.NewSQLRepository(f.conn),
	}, nil
}

// UnitOfWork returns a unit of work whose transactions the repositories
// join through the context.
func (f *RepositoryFactory) UnitOfWork() sharedApplication.UnitOfWork {
	return database.NewUnitOfWork(f.conn)
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}

func (f *RepositoryFactory) supported() error {
	if !f.driver.IsValid() {
		return fmt.Errorf("unsupported driver: %s", f.driver)
	}
	return nil
}
