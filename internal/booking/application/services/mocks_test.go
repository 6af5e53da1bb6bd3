package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stationbook/internal/booking/domain"
	catalogDomain "github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	schedulingDomain "github.com/felixgeelhaar/stationbook/internal/scheduling/domain"
)

type mockReservationRepo struct {
	mock.Mock
}

func (m *mockReservationRepo) Create(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservationRepo) Update(ctx context.Context, r *domain.Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *mockReservationRepo) FindByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *mockReservationRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockReservationRepo) FindActiveStartingBetween(ctx context.Context, stationID uuid.UUID, from, to time.Time) ([]*domain.Reservation, error) {
	args := m.Called(ctx, stationID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reservation), args.Error(1)
}

type mockServiceRepo struct {
	mock.Mock
}

func (m *mockServiceRepo) Save(ctx context.Context, service *catalogDomain.Service) error {
	return m.Called(ctx, service).Error(0)
}

func (m *mockServiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*catalogDomain.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogDomain.Service), args.Error(1)
}

func (m *mockServiceRepo) List(ctx context.Context) ([]*catalogDomain.Service, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*catalogDomain.Service), args.Error(1)
}

type mockScheduleSource struct {
	mock.Mock
}

func (m *mockScheduleSource) Resolve(ctx context.Context, stationID uuid.UUID, date schedulingDomain.Date) (*schedulingDomain.EffectiveSchedule, error) {
	args := m.Called(ctx, stationID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schedulingDomain.EffectiveSchedule), args.Error(1)
}

func (m *mockScheduleSource) Location() *time.Location {
	return time.UTC
}

var testNow = time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC)

func newReservation(t *testing.T, stationID uuid.UUID, start time.Time, minutes int) *domain.Reservation {
	t.Helper()
	code, err := domain.RandomCodeGenerator{}.Generate()
	require.NoError(t, err)
	r, err := domain.NewReservation(domain.NewReservationParams{
		Code:            code,
		StationID:       stationID,
		ServiceID:       uuid.New(),
		Start:           start,
		DurationMinutes: minutes,
		PriceCents:      1500,
		Customer:        domain.Customer{Name: "Grace"},
	}, testNow)
	require.NoError(t, err)
	return r
}
