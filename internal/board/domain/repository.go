package domain

import (
	"context"
	"time"
)

// Document is a board as read back from storage, before normalization.
type Document struct {
	// Version is the schema version the document was written with. Documents
	// written before versioning was introduced report 1.
	Version int
	Board   RawBoard
	// Revision identifies the stored row. Empty when the repository does
	// not track revisions.
	Revision string
}

// Repository persists one board document per household entry.
type Repository interface {
	// Load returns the stored document, or nil and no error when nothing has
	// been stored for the entry yet.
	Load(ctx context.Context, entryID string) (*Document, error)

	// Save replaces the stored document for the entry.
	Save(ctx context.Context, entryID string, board Board) error
}

// ConditionalRepository is implemented by repositories that can refuse a
// save when another writer got there first.
type ConditionalRepository interface {
	Repository

	// SaveIfRevision saves board only while the stored revision equals
	// expected. An empty expected revision requires that nothing is stored.
	// It returns ErrStaleBoard on mismatch and the new revision on success.
	SaveIfRevision(ctx context.Context, entryID string, board Board, expected string) (string, error)
}

// RevisionOf is the revision a repository records for b: its update stamp
// at microsecond precision, the finest PostgreSQL keeps.
func RevisionOf(b Board) string {
	return b.UpdatedAt.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano)
}

// Empty reports whether the document carries no board state at all.
func (d Document) Empty() bool {
	return len(d.Board.People) == 0 &&
		len(d.Board.Tasks) == 0 &&
		len(d.Board.Templates) == 0 &&
		d.Board.UpdatedAt == nil
}
