package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stationbook/internal/booking/application/services"
	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	bookingPersistence "github.com/felixgeelhaar/stationbook/internal/booking/infrastructure/persistence"
	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	catalogPersistence "github.com/felixgeelhaar/stationbook/internal/catalog/infrastructure/persistence"
	schedulingServices "github.com/felixgeelhaar/stationbook/internal/scheduling/application/services"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	schedulingPersistence "github.com/felixgeelhaar/stationbook/internal/scheduling/infrastructure/persistence"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database/dbtest"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/distlock"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
)

var clock = time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	coordinator  *Coordinator
	slots        *services.SlotGenerator
	locks        *services.SlotLockManager
	availability *services.AvailabilityCache
	reservations *bookingPersistence.SQLReservationRepository
	outbox       *outbox.SQLRepository
	metrics      *observability.InMemoryMetrics
	conn         database.Connection

	stationID uuid.UUID
	service   *catalogDomain.Service
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	lockWait time.Duration
	outbox   outbox.Repository
}

func withLockWait(d time.Duration) harnessOption {
	return func(c *harnessConfig) { c.lockWait = d }
}

func withOutbox(repo outbox.Repository) harnessOption {
	return func(c *harnessConfig) { c.outbox = repo }
}

// newHarness wires the coordinator over a migrated SQLite database with one
// station open 08:00-18:00 every day and a 30 minute service.
func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	ctx := context.Background()
	conn := dbtest.OpenSQLite(t)

	h := &harness{
		reservations: bookingPersistence.NewSQLReservationRepository(conn),
		outbox:       outbox.NewSQLRepository(conn),
		metrics:      observability.NewInMemoryMetrics(),
		conn:         conn,
	}
	cfg := harnessConfig{lockWait: 2 * time.Second, outbox: h.outbox}
	for _, opt := range opts {
		opt(&cfg)
	}

	stations := catalogPersistence.NewSQLStationRepository(conn)
	servicesRepo := catalogPersistence.NewSQLServiceRepository(conn)
	rules := schedulingPersistence.NewSQLRuleRepository(conn)

	h.stationID = h.addStation(t, stations, rules, "Bay 1")
	service, err := catalogDomain.NewService("Express wash", 30, 2599, clock)
	require.NoError(t, err)
	require.NoError(t, servicesRepo.Save(ctx, service))
	h.service = service

	resolver := schedulingServices.NewScheduleResolver(stations, rules, time.UTC, nil)
	locker := distlock.NewLocker(distlock.NewMemoryBackend(), 5*time.Millisecond, nil)
	h.locks = services.NewSlotLockManager(locker, cfg.lockWait, 30*time.Second, h.metrics, nil)
	h.availability = services.NewAvailabilityCache(cache.NewMemoryStore(), 5*time.Minute, h.metrics, nil)
	window := services.BookingWindow{MinAdvance: time.Hour, MaxAdvance: 60 * 24 * time.Hour}
	now := func() time.Time { return clock }

	h.coordinator = NewCoordinator(Dependencies{
		UnitOfWork:   database.NewUnitOfWork(conn),
		Stations:     stations,
		Services:     servicesRepo,
		Reservations: h.reservations,
		Outbox:       cfg.outbox,
		Schedules:    resolver,
		Locks:        h.locks,
		Cache:        h.availability,
		Codes:        services.NewCodeIssuer(nil, h.reservations, nil),
		Metrics:      h.metrics,
	}, window, nil).WithClock(now)

	h.slots = services.NewSlotGenerator(resolver, servicesRepo, h.reservations, h.availability, window, 15*time.Minute, nil).
		WithClock(now)
	return h
}

func (h *harness) addStation(t *testing.T, stations catalogDomain.StationRepository, rules schedulingDomain.RuleRepository, name string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	station, err := catalogDomain.NewStation(name, false, clock)
	require.NoError(t, err)
	require.NoError(t, stations.Save(ctx, station))

	id := station.ID()
	for day := time.Sunday; day <= time.Saturday; day++ {
		rule, err := schedulingDomain.NewRegularRule(&id, day,
			schedulingDomain.MustTimeOfDay("08:00"), schedulingDomain.MustTimeOfDay("18:00"), clock)
		require.NoError(t, err)
		require.NoError(t, rules.Save(ctx, rule))
	}
	return id
}

func (h *harness) book(start time.Time) CreateReservationCommand {
	return CreateReservationCommand{
		StationID: h.stationID,
		ServiceID: h.service.ID(),
		Start:     start,
		Customer:  domain.Customer{Name: "Ada Lovelace", Email: "ada@example.com"},
	}
}

func (h *harness) load(t *testing.T, id uuid.UUID) *domain.Reservation {
	t.Helper()
	r, err := h.reservations.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

// insertPending stores a pending reservation directly, the way an external
// intake would.
func (h *harness) insertPending(t *testing.T, start time.Time) *domain.Reservation {
	t.Helper()
	code, err := domain.RandomCodeGenerator{}.Generate()
	require.NoError(t, err)
	r, err := domain.NewReservation(domain.NewReservationParams{
		Code:            code,
		StationID:       h.stationID,
		ServiceID:       h.service.ID(),
		Start:           start,
		DurationMinutes: h.service.DurationMinutes(),
		PriceCents:      h.service.PriceCents(),
		Customer:        domain.Customer{Name: "Grace Hopper"},
		InitialStatus:   domain.StatusPending,
	}, clock)
	require.NoError(t, err)
	require.NoError(t, h.reservations.Create(context.Background(), r))
	return r
}

func (h *harness) outboxKeys(t *testing.T) []string {
	t.Helper()
	msgs, err := h.outbox.GetUnpublished(context.Background(), 100)
	require.NoError(t, err)
	keys := make([]string, 0, len(msgs))
	for _, m := range msgs {
		keys = append(keys, m.RoutingKey)
	}
	return keys
}

func jan(day, hour, minute int) time.Time {
	return time.Date(2025, time.January, day, hour, minute, 0, 0, time.UTC)
}

func saveRule(h *harness, rule *schedulingDomain.ScheduleRule) error {
	return schedulingPersistence.NewSQLRuleRepository(h.conn).Save(context.Background(), rule)
}

func saveService(h *harness, service *catalogDomain.Service) error {
	return catalogPersistence.NewSQLServiceRepository(h.conn).Save(context.Background(), service)
}
