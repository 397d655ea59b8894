package database

import "context"

// Row is a single result row. *sql.Row and pgx.Row both satisfy it.
type Row interface {
	Scan(dest ...any) error
}

// Executor runs statements against a connection or inside a transaction.
// Repositories store whole documents per key, so single-row reads and
// statements without results are all they need.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) error
	QueryRow(ctx context.Context, query string, args ...any) Row
}

// Transaction is an Executor whose statements commit or roll back together.
// Rollback after Commit is a no-op.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is an open database of one driver.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Ping(ctx context.Context) error
	Close() error
	Driver() Driver
}

// InTx runs fn inside a transaction on conn. The transaction commits when fn
// returns nil and rolls back otherwise.
func InTx(ctx context.Context, conn Connection, fn func(tx Executor) error) error {
	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
