package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	internalApp "github.com/felixgeelhaar/stationbook/internal/app"
	"github.com/felixgeelhaar/stationbook/pkg/config"
	"github.com/felixgeelhaar/stationbook/pkg/observability"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupLocalModeTestApp creates a CLI app over a temp SQLite container.
func setupLocalModeTestApp(t *testing.T) *App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:            "test",
		SQLitePath:        filepath.Join(t.TempDir(), "test.db"),
		BookingTimezone:   "UTC",
		LockWaitTimeout:   time.Second,
		LockLease:         10 * time.Second,
		LockRetryInterval: 10 * time.Millisecond,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	a := NewApp(
		container.Coordinator,
		container.GenerateSlotsHandler,
		container.GetReservationHandler,
		container.GetReservationByCodeHandler,
		container.CreateStationHandler,
		container.CreateServiceHandler,
		container.ListStationsHandler,
		container.ListServicesHandler,
		container.AddRuleHandler,
		container.ResolveScheduleHandler,
	)
	a.SetOperations(container.Health, container.Migrate)
	return a
}

func TestMigrateCmd_UpToDate(t *testing.T) {
	SetApp(setupLocalModeTestApp(t))
	defer SetApp(nil)

	var out bytes.Buffer
	migrateCmd.SetOut(&out)
	migrateCmd.SetContext(context.Background())

	require.NoError(t, migrateCmd.RunE(migrateCmd, nil))
	assert.Contains(t, out.String(), "up to date")
}

func TestHealthCmd_ReportsDatabase(t *testing.T) {
	SetApp(setupLocalModeTestApp(t))
	defer SetApp(nil)

	var out bytes.Buffer
	healthCmd.SetOut(&out)
	healthCmd.SetContext(context.Background())

	require.NoError(t, healthCmd.RunE(healthCmd, nil))
	assert.Contains(t, out.String(), "database")
	assert.Contains(t, out.String(), "overall    healthy")
}

func TestCommands_RequireApp(t *testing.T) {
	SetApp(nil)
	migrateCmd.SetContext(context.Background())

	err := migrateCmd.RunE(migrateCmd, nil)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestRootCmd_PropagatesCorrelationID(t *testing.T) {
	var logs bytes.Buffer
	SetLogger(observability.NewLogger(observability.LogConfig{
		Level:  observability.LogLevelDebug,
		Format: observability.LogFormatJSON,
		Output: &logs,
	}))
	defer SetLogger(nil)

	var correlationID, requestID string
	capture := &cobra.Command{
		Use: "capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			correlationID = observability.CorrelationIDFromContext(cmd.Context())
			requestID = observability.RequestIDFromContext(cmd.Context())
			return nil
		},
	}
	rootCmd.AddCommand(capture)
	defer rootCmd.RemoveCommand(capture)

	rootCmd.SetArgs([]string{"capture"})
	defer rootCmd.SetArgs(nil)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	require.NotEmpty(t, correlationID)
	assert.NotEmpty(t, requestID)
	_, err := uuid.Parse(correlationID)
	assert.NoError(t, err)
	assert.Contains(t, logs.String(), `"correlation_id":"`+correlationID+`"`)
	assert.Contains(t, logs.String(), "command end")
}
