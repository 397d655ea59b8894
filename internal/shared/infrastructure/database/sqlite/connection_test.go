package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/database"
)

func openMemory(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := NewConnection(ctx, database.Config{SQLitePath: memoryPath})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Exec(ctx, `CREATE TABLE docs (entry_id TEXT PRIMARY KEY, body TEXT)`))
	return conn
}

func count(t *testing.T, conn database.Connection) int {
	t.Helper()
	var n int
	require.NoError(t, conn.QueryRow(context.Background(), `SELECT COUNT(*) FROM docs`).Scan(&n))
	return n
}

func TestNewConnection_CreatesDirectory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "board.db")

	conn, err := NewConnection(ctx, database.Config{Driver: database.DriverSQLite, SQLitePath: path})
	require.NoError(t, err)
	defer conn.Close()

	assert.NoError(t, conn.Ping(ctx))
	assert.Equal(t, database.DriverSQLite, conn.Driver())
	assert.FileExists(t, path)
}

func TestConnection_ExecAndQueryRow(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	require.NoError(t, conn.Exec(ctx, `INSERT INTO docs (entry_id, body) VALUES (?, ?)`, "home", `{"tasks":[]}`))

	var body string
	require.NoError(t, conn.QueryRow(ctx, `SELECT body FROM docs WHERE entry_id = ?`, "home").Scan(&body))
	assert.Equal(t, `{"tasks":[]}`, body)

	err := conn.QueryRow(ctx, `SELECT body FROM docs WHERE entry_id = ?`, "missing").Scan(&body)
	assert.True(t, database.IsNoRows(err))
	assert.False(t, database.IsNoRows(errors.New("boom")))
}

func TestInTx_Commits(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	err := database.InTx(ctx, conn, func(tx database.Executor) error {
		if err := tx.Exec(ctx, `INSERT INTO docs (entry_id, body) VALUES (?, ?)`, "home", `{}`); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM docs`).Scan(&n); err != nil {
			return err
		}
		assert.Equal(t, 1, n)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, count(t, conn))
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)
	boom := errors.New("boom")

	err := database.InTx(ctx, conn, func(tx database.Executor) error {
		require.NoError(t, tx.Exec(ctx, `INSERT INTO docs (entry_id, body) VALUES (?, ?)`, "home", `{}`))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, count(t, conn))
}

func TestTransaction_RollbackAfterCommit(t *testing.T) {
	ctx := context.Background()
	conn := openMemory(t)

	tx, err := conn.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, `INSERT INTO docs (entry_id, body) VALUES (?, ?)`, "home", `{}`))
	require.NoError(t, tx.Commit(ctx))

	assert.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 1, count(t, conn))
}
