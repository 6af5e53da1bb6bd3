package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	catalogPersistence "github.com/felixgeelhaar/stationbook/internal/catalog/infrastructure/persistence"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database/dbtest"
)

var testNow = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)

type fixture struct {
	repo      *SQLReservationRepository
	stationID uuid.UUID
	serviceID uuid.UUID
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	conn := dbtest.OpenSQLite(t)

	station, err := catalogDomain.NewStation("Bay 1", false, testNow)
	require.NoError(t, err)
	require.NoError(t, catalogPersistence.NewSQLStationRepository(conn).Save(ctx, station))

	service, err := catalogDomain.NewService("Full wash", 45, 2500, testNow)
	require.NoError(t, err)
	require.NoError(t, catalogPersistence.NewSQLServiceRepository(conn).Save(ctx, service))

	return fixture{
		repo:      NewSQLReservationRepository(conn),
		stationID: station.ID(),
		serviceID: service.ID(),
	}
}

func (f fixture) reservation(t *testing.T, code string, start time.Time) *domain.Reservation {
	t.Helper()
	requester := uuid.New()
	r, err := domain.NewReservation(domain.NewReservationParams{
		Code:            code,
		StationID:       f.stationID,
		ServiceID:       f.serviceID,
		Start:           start,
		DurationMinutes: 45,
		PriceCents:      2500,
		Customer:        domain.Customer{Name: "Ada", Email: "ada@example.com"},
		RequesterID:     &requester,
	}, testNow)
	require.NoError(t, err)
	return r
}

func TestSQLReservationRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	start := time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

	r := f.reservation(t, "ABCD2345", start)
	require.NoError(t, f.repo.Create(ctx, r))
	assert.Equal(t, 1, r.Version())

	got, err := f.repo.FindByID(ctx, r.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "ABCD2345", got.Code())
	assert.Equal(t, f.stationID, got.StationID())
	assert.True(t, start.Equal(got.Start()))
	assert.Equal(t, domain.StatusConfirmed, got.Status())
	assert.Equal(t, "ada@example.com", got.Customer().Email)
	require.NotNil(t, got.RequesterID())
	assert.Equal(t, 25, got.LoyaltyPoints())
	require.NotNil(t, got.ConfirmedAt())
	assert.Nil(t, got.CancelledAt())
	assert.Equal(t, 1, got.Version())

	byCode, err := f.repo.FindByCode(ctx, "ABCD2345")
	require.NoError(t, err)
	require.NotNil(t, byCode)
	assert.Equal(t, r.ID(), byCode.ID())

	exists, err := f.repo.CodeExists(ctx, "ABCD2345")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSQLReservationRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	got, err := f.repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = f.repo.FindByCode(ctx, "ZZZZ9999")
	require.NoError(t, err)
	assert.Nil(t, got)

	exists, err := f.repo.CodeExists(ctx, "ZZZZ9999")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLReservationRepository_DuplicateCode(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	start := time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, f.repo.Create(ctx, f.reservation(t, "ABCD2345", start)))
	err := f.repo.Create(ctx, f.reservation(t, "ABCD2345", start.Add(2*time.Hour)))

	assert.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestSQLReservationRepository_UpdateIsVersioned(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	start := time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

	r := f.reservation(t, "ABCD2345", start)
	require.NoError(t, f.repo.Create(ctx, r))

	first, err := f.repo.FindByID(ctx, r.ID())
	require.NoError(t, err)
	second, err := f.repo.FindByID(ctx, r.ID())
	require.NoError(t, err)

	require.NoError(t, first.Cancel("customer request", testNow.Add(time.Hour)))
	require.NoError(t, f.repo.Update(ctx, first))
	assert.Equal(t, 2, first.Version())

	require.NoError(t, second.Complete(testNow.Add(time.Hour)))
	assert.ErrorIs(t, f.repo.Update(ctx, second), domain.ErrOptimisticLocking)

	got, err := f.repo.FindByID(ctx, r.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status())
	assert.Equal(t, "customer request", got.CancelReason())
	require.NotNil(t, got.CancelledAt())
	assert.Equal(t, 2, got.Version())
}

func TestSQLReservationRepository_FindActiveStartingBetween(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	day := time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC)

	early := f.reservation(t, "AAAA2222", day.Add(9*time.Hour))
	late := f.reservation(t, "BBBB3333", day.Add(15*time.Hour))
	cancelled := f.reservation(t, "CCCC4444", day.Add(11*time.Hour))
	nextDay := f.reservation(t, "DDDD5555", day.Add(33*time.Hour))
	for _, r := range []*domain.Reservation{late, early, cancelled, nextDay} {
		require.NoError(t, f.repo.Create(ctx, r))
	}
	require.NoError(t, cancelled.Cancel("", testNow))
	require.NoError(t, f.repo.Update(ctx, cancelled))

	got, err := f.repo.FindActiveStartingBetween(ctx, f.stationID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, early.ID(), got[0].ID())
	assert.Equal(t, late.ID(), got[1].ID())

	// The upper bound is exclusive.
	got, err = f.repo.FindActiveStartingBetween(ctx, f.stationID, day, day.Add(15*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, early.ID(), got[0].ID())

	got, err = f.repo.FindActiveStartingBetween(ctx, uuid.New(), day, day.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}
