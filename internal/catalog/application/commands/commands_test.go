package commands

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stationbook/internal/catalog/application/queries"
	"github.com/felixgeelhaar/stationbook/internal/catalog/domain"
	"github.com/felixgeelhaar/stationbook/internal/catalog/infrastructure/persistence"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database/dbtest"
)

func TestCreateStationHandler(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewSQLStationRepository(dbtest.OpenSQLite(t))
	handler := NewCreateStationHandler(repo)

	operator := uuid.New()
	id, err := handler.Handle(ctx, CreateStationCommand{Name: " Bay 2 ", UsesGenericSchedule: true, OperatorID: &operator})
	require.NoError(t, err)
	_, err = handler.Handle(ctx, CreateStationCommand{Name: "Bay 1"})
	require.NoError(t, err)

	station, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, station)
	assert.Equal(t, "Bay 2", station.Name())
	assert.True(t, station.UsesGenericSchedule())
	assert.Equal(t, operator, *station.OperatorID())

	list, err := queries.NewListStationsHandler(repo).Handle(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Bay 1", list[0].Name)
	assert.Equal(t, "Bay 2", list[1].Name)

	_, err = handler.Handle(ctx, CreateStationCommand{Name: "  "})
	assert.ErrorIs(t, err, domain.ErrStationNameRequired)
}

func TestCreateServiceHandler(t *testing.T) {
	ctx := context.Background()
	repo := persistence.NewSQLServiceRepository(dbtest.OpenSQLite(t))
	handler := NewCreateServiceHandler(repo)

	id, err := handler.Handle(ctx, CreateServiceCommand{Name: "Full wash", DurationMinutes: 45, PriceCents: 2500})
	require.NoError(t, err)

	list, err := queries.NewListServicesHandler(repo).Handle(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, 45, list[0].DurationMinutes)
	assert.Equal(t, int64(2500), list[0].PriceCents)
	assert.True(t, list[0].Active)

	_, err = handler.Handle(ctx, CreateServiceCommand{Name: "Forever", DurationMinutes: 1441})
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)
	_, err = handler.Handle(ctx, CreateServiceCommand{Name: "Refund", DurationMinutes: 10, PriceCents: -1})
	assert.ErrorIs(t, err, domain.ErrNegativePrice)
}
