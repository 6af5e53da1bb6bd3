package cli

import (
	"context"
	"time"

	bookingCommands "github.com/felixgeelhaar/stationbook/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/stationbook/internal/booking/application/queries"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	catalogCommands "github.com/felixgeelhaar/stationbook/internal/catalog/application/commands"
	catalogQueries "github.com/felixgeelhaar/stationbook/internal/catalog/application/queries"
	scheduleCommands "github.com/felixgeelhaar/stationbook/internal/scheduling/application/commands"
	scheduleQueries "github.com/felixgeelhaar/stationbook/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
)

// App holds the CLI application dependencies.
type App struct {
	// Booking
	Coordinator                 *bookingCommands.Coordinator
	GenerateSlotsHandler        *bookingQueries.GenerateSlotsHandler
	GetReservationHandler       *bookingQueries.GetReservationHandler
	GetReservationByCodeHandler *bookingQueries.GetReservationByCodeHandler

	// Catalog
	CreateStationHandler *catalogCommands.CreateStationHandler
	CreateServiceHandler *catalogCommands.CreateServiceHandler
	ListStationsHandler  *catalogQueries.ListStationsHandler
	ListServicesHandler  *catalogQueries.ListServicesHandler

	// Schedule
	AddRuleHandler         *scheduleCommands.AddRuleHandler
	ResolveScheduleHandler *scheduleQueries.ResolveScheduleHandler

	// Operations
	Health  *observability.HealthRegistry
	Migrate func(ctx context.Context) ([]string, error)

	// Location is the booking time zone used to read and print local times.
	Location *time.Location

	// Current actor (configured per environment)
	CurrentActorID uuid.UUID
	CurrentRole    services.Role
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	coordinator *bookingCommands.Coordinator,
	generateSlotsHandler *bookingQueries.GenerateSlotsHandler,
	getReservationHandler *bookingQueries.GetReservationHandler,
	getReservationByCodeHandler *bookingQueries.GetReservationByCodeHandler,
	createStationHandler *catalogCommands.CreateStationHandler,
	createServiceHandler *catalogCommands.CreateServiceHandler,
	listStationsHandler *catalogQueries.ListStationsHandler,
	listServicesHandler *catalogQueries.ListServicesHandler,
	addRuleHandler *scheduleCommands.AddRuleHandler,
	resolveScheduleHandler *scheduleQueries.ResolveScheduleHandler,
) *App {
	return &App{
		Coordinator:                 coordinator,
		GenerateSlotsHandler:        generateSlotsHandler,
		GetReservationHandler:       getReservationHandler,
		GetReservationByCodeHandler: getReservationByCodeHandler,
		CreateStationHandler:        createStationHandler,
		CreateServiceHandler:        createServiceHandler,
		ListStationsHandler:         listStationsHandler,
		ListServicesHandler:         listServicesHandler,
		AddRuleHandler:              addRuleHandler,
		ResolveScheduleHandler:      resolveScheduleHandler,
		Location:                    time.UTC,
		CurrentActorID:              uuid.Nil,
		CurrentRole:                 services.RoleAdmin,
	}
}

// SetActor updates the identity transitions are authorized for.
func (a *App) SetActor(id uuid.UUID, role services.Role) {
	a.CurrentActorID = id
	a.CurrentRole = role
}

// SetLocation updates the booking time zone. Nil keeps the current one.
func (a *App) SetLocation(loc *time.Location) {
	if loc != nil {
		a.Location = loc
	}
}

// SetOperations wires the health registry and the schema migrator.
func (a *App) SetOperations(health *observability.HealthRegistry, migrate func(ctx context.Context) ([]string, error)) {
	a.Health = health
	a.Migrate = migrate
}

// Global app instance (set by main)
var app *App

// SetApp sets the global app instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global app instance.
func GetApp() *App {
	return app
}
