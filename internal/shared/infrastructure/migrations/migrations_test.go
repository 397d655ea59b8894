package migrations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/database/sqlite"
)

func TestFiles(t *testing.T) {
	for _, driver := range []database.Driver{database.DriverSQLite, database.DriverPostgres} {
		t.Run(driver.String(), func(t *testing.T) {
			files, err := Files(driver)
			require.NoError(t, err)
			assert.Equal(t, []string{driver.String() + "/001_boards.up.sql"}, files)
		})
	}

	_, err := Files(database.Driver("oracle"))
	assert.Error(t, err)
}

func TestRun_SQLiteIsRepeatable(t *testing.T) {
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{SQLitePath: ":memory:"})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, Run(ctx, conn))
	require.NoError(t, Run(ctx, conn))

	var count int
	require.NoError(t, conn.QueryRow(ctx, `SELECT COUNT(*) FROM boards`).Scan(&count))
	assert.Equal(t, 0, count)
}
