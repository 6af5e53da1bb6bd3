package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stationbook/internal/booking/application/commands"
	"github.com/felixgeelhaar/stationbook/internal/booking/application/queries"
	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	catalogCommands "github.com/felixgeelhaar/stationbook/internal/catalog/application/commands"
	scheduleCommands "github.com/felixgeelhaar/stationbook/internal/scheduling/application/commands"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/stationbook/pkg/config"
)

// localConfig returns a local mode configuration backed by a temp SQLite file.
func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                   "test",
		SQLitePath:               filepath.Join(t.TempDir(), "stationbook.db"),
		BookingTimezone:          "UTC",
		BookingMinAdvanceMinutes: 60,
		BookingMaxAdvanceDays:    60,
		BookingSlotStepMinutes:   15,
		LockWaitTimeout:          2 * time.Second,
		LockLease:                10 * time.Second,
		LockRetryInterval:        10 * time.Millisecond,
		CacheTTL:                 time.Minute,
		OutboxPollInterval:       10 * time.Millisecond,
		OutboxBatchSize:          50,
		OutboxMaxRetries:         3,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newLocalContainer(t *testing.T) *Container {
	t.Helper()
	container, err := NewContainer(context.Background(), localConfig(t), testLogger())
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return container
}

// seedStation registers a station open 08:00-18:00 every day and a 30 minute service.
func seedStation(t *testing.T, c *Container) (stationID, serviceID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	stationID, err := c.CreateStationHandler.Handle(ctx, catalogCommands.CreateStationCommand{Name: "Bay 1"})
	require.NoError(t, err)
	serviceID, err = c.CreateServiceHandler.Handle(ctx, catalogCommands.CreateServiceCommand{
		Name:            "Express wash",
		DurationMinutes: 30,
		PriceCents:      1999,
	})
	require.NoError(t, err)

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		weekday := wd
		_, err := c.AddRuleHandler.Handle(ctx, scheduleCommands.AddRuleCommand{
			StationID: &stationID,
			Kind:      schedulingDomain.RuleRegular,
			Weekday:   &weekday,
			Start:     schedulingDomain.MustTimeOfDay("08:00"),
			End:       schedulingDomain.MustTimeOfDay("18:00"),
		})
		require.NoError(t, err)
	}
	return stationID, serviceID
}

func TestLocalModeContainer(t *testing.T) {
	container := newLocalContainer(t)

	assert.Equal(t, database.DriverSQLite, container.DBDriver)
	assert.Nil(t, container.RedisClient)
	assert.IsType(t, &eventbus.NoopPublisher{}, container.EventPublisher)

	assert.NotNil(t, container.StationRepo)
	assert.NotNil(t, container.ServiceRepo)
	assert.NotNil(t, container.RuleRepo)
	assert.NotNil(t, container.ReservationRepo)
	assert.NotNil(t, container.OutboxRepo)
	assert.NotNil(t, container.UnitOfWork)

	assert.NotNil(t, container.Coordinator)
	assert.NotNil(t, container.SlotGenerator)
	assert.NotNil(t, container.GenerateSlotsHandler)
	assert.NotNil(t, container.GetReservationByCodeHandler)
	assert.NotNil(t, container.OutboxProcessor)

	// Local mode migrates on open, so a second run has nothing to apply.
	applied, err := container.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestLocalModeBookingFlow(t *testing.T) {
	ctx := context.Background()
	container := newLocalContainer(t)
	stationID, serviceID := seedStation(t, container)

	date := schedulingDomain.DateOf(time.Now().UTC(), time.UTC).AddDays(3)
	start := date.At(schedulingDomain.MustTimeOfDay("10:00"), time.UTC)

	slots, err := container.GenerateSlotsHandler.Handle(ctx, queries.GenerateSlotsQuery{
		StationID: stationID,
		Date:      date,
		ServiceID: serviceID,
	})
	require.NoError(t, err)
	// 08:00 through 17:30 in 15 minute steps.
	require.Len(t, slots, 39)
	assert.True(t, slots[8].Available)
	assert.True(t, start.Equal(slots[8].Time))

	requester := uuid.New()
	booked, err := container.Coordinator.Create(ctx, commands.CreateReservationCommand{
		StationID:   stationID,
		ServiceID:   serviceID,
		Start:       start,
		Customer:    domain.Customer{Name: "Ada Lovelace", Email: "ada@example.com"},
		RequesterID: &requester,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed.String(), booked.Status)
	assert.Equal(t, 19, booked.LoyaltyPoints)

	// The booking invalidated the cached day.
	slots, err = container.GenerateSlotsHandler.Handle(ctx, queries.GenerateSlotsQuery{
		StationID: stationID,
		Date:      date,
		ServiceID: serviceID,
	})
	require.NoError(t, err)
	for _, s := range slots {
		overlapping := s.Time.Before(booked.End) && s.Time.Add(30*time.Minute).After(booked.Start)
		assert.Equal(t, !overlapping, s.Available, s.Time.Format("15:04"))
	}

	_, err = container.Coordinator.Create(ctx, commands.CreateReservationCommand{
		StationID: stationID,
		ServiceID: serviceID,
		Start:     start.Add(15 * time.Minute),
		Customer:  domain.Customer{Name: "Grace Hopper"},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	found, err := container.GetReservationByCodeHandler.Handle(ctx, queries.GetReservationByCodeQuery{Code: booked.Code})
	require.NoError(t, err)
	assert.Equal(t, booked.ID, found.ID)

	cancelled, err := container.Coordinator.Cancel(ctx, commands.CancelReservationCommand{
		ReservationID: booked.ID,
		Reason:        "car sold",
		Role:          "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled.String(), cancelled.Status)

	// Both lifecycle events reach the broker through the outbox.
	require.NoError(t, container.OutboxProcessor.ProcessOnce(ctx))
	assert.Equal(t, uint64(2), container.OutboxProcessor.GetStats().PublishedCount)

	families, err := container.MetricsRegistry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["stationbook_reservations_created_total"])
	assert.True(t, names["stationbook_reservations_conflicts_total"])
}

func TestLocalModeHealth(t *testing.T) {
	container := newLocalContainer(t)

	rec := httptest.NewRecorder()
	container.Health.Handler(time.Second).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database"`)
}

func TestNewContainer_UnreachableRedisOutsideDevelopment(t *testing.T) {
	cfg := localConfig(t)
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	_, err := NewContainer(context.Background(), cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis")
}

func TestNewContainer_UnreachableRedisInDevelopmentFallsBack(t *testing.T) {
	cfg := localConfig(t)
	cfg.AppEnv = "development"
	cfg.RedisURL = "redis://127.0.0.1:1/0"

	container, err := NewContainer(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	defer container.Close()
	assert.Nil(t, container.RedisClient)
}
