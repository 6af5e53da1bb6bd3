// Package dbtest opens migrated SQLite databases for repository and
// coordinator tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/stationbook/internal/shared/infrastructure/migrations"
)

// OpenSQLite returns a file-backed SQLite connection in a temp dir with every
// migration applied. The connection is closed when the test ends.
func OpenSQLite(t testing.TB) database.Connection {
	t.Helper()
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{
		SQLitePath: filepath.Join(t.TempDir(), "stationbook.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = migrations.Run(ctx, conn)
	require.NoError(t, err)
	return conn
}
