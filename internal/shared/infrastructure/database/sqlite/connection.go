// Package sqlite opens board databases with the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/database"
)

const memoryPath = ":memory:"

// WAL lets readers proceed while the single writer commits a board.
const pragmas = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

func init() {
	database.RegisterSQLiteDriver(NewConnection)
}

// queryer is the part of *sql.DB and *sql.Tx the executor needs.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type executor struct {
	q queryer
}

func (e executor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.q.ExecContext(ctx, query, args...)
	return err
}

func (e executor) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return e.q.QueryRowContext(ctx, query, args...)
}

// Connection is a SQLite database. It holds a single connection, so
// statements and transactions are serialized within the process.
type Connection struct {
	executor
	db *sql.DB
}

// NewConnection opens cfg.SQLitePath, creating its directory when needed.
func NewConnection(ctx context.Context, cfg database.Config) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}
	if path != memoryPath {
		if err := database.EnsureDirectory(path); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", path+sep+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	return &Connection{executor: executor{q: db}, db: db}, nil
}

func (c *Connection) Driver() database.Driver { return database.DriverSQLite }

func (c *Connection) Close() error { return c.db.Close() }

func (c *Connection) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

// BeginTx starts a transaction on the single connection. Statements on c
// wait until it commits or rolls back.
func (c *Connection) BeginTx(ctx context.Context) (database.Transaction, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &transaction{executor: executor{q: tx}, tx: tx}, nil
}

type transaction struct {
	executor
	tx *sql.Tx
}

func (t *transaction) Commit(context.Context) error { return t.tx.Commit() }

func (t *transaction) Rollback(context.Context) error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}
