package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/database"
)

type sqlDialect struct {
	// load selects document and updated_at.
	load string
	// current selects updated_at and locks the row for the transaction.
	current string
	save    string
	// updatedAt converts the board stamp into the column's driver type.
	updatedAt func(domain.Board) any
	// scanRevision scans dest followed by the updated_at column and
	// returns that column as a revision.
	scanRevision func(row database.Row, dest ...any) (string, error)
}

var dialects = map[database.Driver]sqlDialect{
	database.DriverSQLite: {
		load:    `SELECT document, updated_at FROM boards WHERE entry_id = ?`,
		current: `SELECT updated_at FROM boards WHERE entry_id = ?`,
		save: `
			INSERT INTO boards (entry_id, version, document, task_count, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(entry_id) DO UPDATE SET
				version = excluded.version,
				document = excluded.document,
				task_count = excluded.task_count,
				updated_at = excluded.updated_at
		`,
		updatedAt: func(b domain.Board) any { return domain.RevisionOf(b) },
		scanRevision: func(row database.Row, dest ...any) (string, error) {
			var revision string
			err := row.Scan(append(dest, &revision)...)
			return revision, err
		},
	},
	database.DriverPostgres: {
		load:    `SELECT document::text, updated_at FROM boards WHERE entry_id = $1`,
		current: `SELECT updated_at FROM boards WHERE entry_id = $1 FOR UPDATE`,
		save: `
			INSERT INTO boards (entry_id, version, document, task_count, updated_at)
			VALUES ($1, $2, $3::jsonb, $4, $5)
			ON CONFLICT (entry_id) DO UPDATE SET
				version = EXCLUDED.version,
				document = EXCLUDED.document,
				task_count = EXCLUDED.task_count,
				updated_at = EXCLUDED.updated_at
		`,
		updatedAt: func(b domain.Board) any { return b.UpdatedAt.UTC().Truncate(time.Microsecond) },
		scanRevision: func(row database.Row, dest ...any) (string, error) {
			var at time.Time
			if err := row.Scan(append(dest, &at)...); err != nil {
				return "", err
			}
			return domain.RevisionOf(domain.Board{UpdatedAt: at}), nil
		},
	},
}

// SQLBoardRepository stores one row per household in the boards table of a
// SQLite or PostgreSQL database. The updated_at column doubles as the row
// revision for conditional saves.
type SQLBoardRepository struct {
	conn    database.Connection
	dialect sqlDialect
}

// NewSQLBoardRepository creates a repository for the connection's driver.
func NewSQLBoardRepository(conn database.Connection) (*SQLBoardRepository, error) {
	dialect, ok := dialects[conn.Driver()]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", conn.Driver())
	}
	return &SQLBoardRepository{conn: conn, dialect: dialect}, nil
}

// Load returns the stored document or nil when the entry has none.
func (r *SQLBoardRepository) Load(ctx context.Context, entryID string) (*domain.Document, error) {
	var document string
	revision, err := r.dialect.scanRevision(r.conn.QueryRow(ctx, r.dialect.load, entryID), &document)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query board: %w", err)
	}
	doc, err := DecodeDocument([]byte(document))
	if err != nil {
		return nil, err
	}
	doc.Revision = revision
	return doc, nil
}

// Save upserts the board row.
func (r *SQLBoardRepository) Save(ctx context.Context, entryID string, b domain.Board) error {
	return r.upsert(ctx, r.conn, entryID, b)
}

// SaveIfRevision upserts the board row inside a transaction that first
// checks the stored updated_at against expected.
func (r *SQLBoardRepository) SaveIfRevision(ctx context.Context, entryID string, b domain.Board, expected string) (string, error) {
	err := database.InTx(ctx, r.conn, func(tx database.Executor) error {
		current, err := r.dialect.scanRevision(tx.QueryRow(ctx, r.dialect.current, entryID))
		if database.IsNoRows(err) {
			current, err = "", nil
		}
		if err != nil {
			return fmt.Errorf("query board revision: %w", err)
		}
		if current != expected {
			return fmt.Errorf("%w: %s is at %q, not %q", domain.ErrStaleBoard, entryID, current, expected)
		}
		return r.upsert(ctx, tx, entryID, b)
	})
	if err != nil {
		return "", err
	}
	return domain.RevisionOf(b), nil
}

func (r *SQLBoardRepository) upsert(ctx context.Context, exec database.Executor, entryID string, b domain.Board) error {
	data, err := EncodeDocument(b)
	if err != nil {
		return err
	}
	err = exec.Exec(ctx, r.dialect.save,
		entryID,
		domain.CurrentSchemaVersion,
		string(data),
		len(b.Tasks),
		r.dialect.updatedAt(b),
	)
	if err != nil {
		return fmt.Errorf("upsert board: %w", err)
	}
	return nil
}

// Ping checks the underlying connection.
func (r *SQLBoardRepository) Ping(ctx context.Context) error {
	return r.conn.Ping(ctx)
}
