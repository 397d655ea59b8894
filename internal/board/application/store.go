package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

// Notifier is told about every committed save.
type Notifier interface {
	Notify(ctx context.Context, event *domain.BoardUpdated)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event *domain.BoardUpdated)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, event *domain.BoardUpdated) { f(ctx, event) }

// StoreConfig describes one household entry.
type StoreConfig struct {
	EntryID  string
	Title    string
	Members  []domain.Person
	Chores   []string
	Location *time.Location
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithMetrics records store activity.
func WithMetrics(metrics observability.Metrics) StoreOption {
	return func(s *Store) { s.metrics = metrics }
}

// Store owns the board of one household entry. Every read-modify-write
// sequence runs under a single mutex, so a save from an editor can never
// interleave with a refresh or cleanup in flight. Callers always receive
// copies of the committed board.
//
// Cleanup, refresh and default-board creation derive the next board from the
// cached one. On a ConditionalRepository they only commit while storage still
// holds the revision the cache was read from, and reload once otherwise.
type Store struct {
	entryID  string
	title    string
	members  []domain.Person
	chores   []string
	loc      *time.Location
	repo     domain.Repository
	notifier Notifier
	logger   *slog.Logger
	metrics  observability.Metrics
	now      func() time.Time

	mu       sync.Mutex
	board    *domain.Board
	revision string
}

// NewStore creates a store for cfg.EntryID backed by repo. notifier may be nil.
func NewStore(cfg StoreConfig, repo domain.Repository, notifier Notifier, logger *slog.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	title := cfg.Title
	if title == "" {
		title = cfg.EntryID
	}
	s := &Store{
		entryID:  cfg.EntryID,
		title:    title,
		members:  slices.Clone(cfg.Members),
		chores:   slices.Clone(cfg.Chores),
		loc:      loc,
		repo:     repo,
		notifier: notifier,
		logger:   logger.With("entry_id", cfg.EntryID),
		metrics:  observability.NoopMetrics{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EntryID returns the household entry this store owns.
func (s *Store) EntryID() string { return s.entryID }

// Title returns the household display name.
func (s *Store) Title() string { return s.title }

// Location returns the household time zone.
func (s *Store) Location() *time.Location { return s.loc }

// Today returns the current local date of the household.
func (s *Store) Today() domain.Date {
	return domain.Today(s.now(), s.loc)
}

func (s *Store) localNow() time.Time {
	return s.now().In(s.loc)
}

// Load returns the current board. The first call reads storage; when nothing
// is stored yet, a default board is built from the configured members and
// chores and persisted.
func (s *Store) Load(ctx context.Context) (domain.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.loadLocked(ctx)
	if err != nil {
		return domain.Board{}, err
	}
	return b.Clone(), nil
}

func (s *Store) loadLocked(ctx context.Context) (domain.Board, error) {
	if s.board != nil {
		return *s.board, nil
	}

	for attempt := 0; ; attempt++ {
		doc, err := s.repo.Load(ctx, s.entryID)
		if err != nil {
			return domain.Board{}, fmt.Errorf("load board %s: %w", s.entryID, err)
		}

		s.revision = ""
		if doc != nil {
			s.revision = doc.Revision
		}
		if doc != nil && !doc.Empty() {
			b := domain.Normalize(doc.Board, s.localNow())
			s.board = &b
			s.logger.Debug("board loaded",
				"schema_version", doc.Version,
				"tasks", len(b.Tasks),
			)
			return b, nil
		}

		now := s.localNow()
		b := domain.NormalizeBoard(domain.DefaultBoard(s.members, s.chores, now), now)
		err = s.persistLocked(ctx, b, true)
		if errors.Is(err, domain.ErrStaleBoard) && attempt == 0 {
			s.logger.Debug("board created concurrently, reloading")
			continue
		}
		if err != nil {
			return domain.Board{}, fmt.Errorf("persist default board %s: %w", s.entryID, err)
		}
		s.board = &b
		s.logger.Info("default board created",
			"people", len(b.People),
			"tasks", len(b.Tasks),
		)
		return b, nil
	}
}

// Save normalizes candidate, persists it and notifies subscribers. The
// normalized board is returned.
func (s *Store) Save(ctx context.Context, candidate domain.RawBoard) (domain.Board, error) {
	s.mu.Lock()
	b, err := s.commitLocked(ctx, domain.Normalize(candidate, s.localNow()), false)
	s.mu.Unlock()
	if err != nil {
		return domain.Board{}, err
	}

	s.notify(ctx, b, domain.ReasonSave)
	return b.Clone(), nil
}

// SaveBoard is Save for an already typed board.
func (s *Store) SaveBoard(ctx context.Context, candidate domain.Board) (domain.Board, error) {
	return s.Save(ctx, candidate.ToRaw())
}

func (s *Store) commitLocked(ctx context.Context, b domain.Board, conditional bool) (domain.Board, error) {
	if err := s.persistLocked(ctx, b, conditional); err != nil {
		s.metrics.Counter(observability.MetricBoardSaveErrors, 1, observability.T("entry_id", s.entryID))
		return domain.Board{}, fmt.Errorf("save board %s: %w", s.entryID, err)
	}
	s.board = &b
	s.metrics.Counter(observability.MetricBoardSaves, 1, observability.T("entry_id", s.entryID))
	s.metrics.Gauge(observability.MetricBoardTasks, float64(len(b.Tasks)), observability.T("entry_id", s.entryID))
	s.logger.Debug("board saved",
		"tasks", len(b.Tasks),
		"templates", len(b.Templates),
		"updated_at", b.UpdatedAt,
	)
	return b, nil
}

// persistLocked writes b and records the new revision. Editor saves replace
// whatever is stored; derived saves are conditional when the repository
// supports it.
func (s *Store) persistLocked(ctx context.Context, b domain.Board, conditional bool) error {
	if repo, ok := s.repo.(domain.ConditionalRepository); ok && conditional {
		revision, err := repo.SaveIfRevision(ctx, s.entryID, b, s.revision)
		if err != nil {
			return err
		}
		s.revision = revision
		return nil
	}
	if err := s.repo.Save(ctx, s.entryID, b); err != nil {
		return err
	}
	s.revision = domain.RevisionOf(b)
	return nil
}

// updateLocked applies change to the current board and commits the result.
// When storage moved on since the board was cached, the cache is dropped and
// change runs once more against the stored board. change reports false when
// there is nothing to save.
func (s *Store) updateLocked(ctx context.Context, change func(current domain.Board) (domain.Board, bool)) (domain.Board, bool, error) {
	for attempt := 0; ; attempt++ {
		current, err := s.loadLocked(ctx)
		if err != nil {
			return domain.Board{}, false, err
		}
		next, ok := change(current)
		if !ok {
			return current, false, nil
		}
		b, err := s.commitLocked(ctx, next, true)
		if errors.Is(err, domain.ErrStaleBoard) && attempt == 0 {
			s.logger.Debug("board changed in storage, reloading")
			s.board = nil
			continue
		}
		if err != nil {
			return domain.Board{}, false, err
		}
		return b, true, nil
	}
}

// RemoveDoneTasks drops every task in the done column and returns how many
// were removed. Nothing is saved when there is nothing to remove.
func (s *Store) RemoveDoneTasks(ctx context.Context) (int, error) {
	var removed int
	s.mu.Lock()
	b, saved, err := s.updateLocked(ctx, func(current domain.Board) (domain.Board, bool) {
		remaining := make([]domain.Task, 0, len(current.Tasks))
		for _, task := range current.Tasks {
			if task.Column != domain.ColumnDone {
				remaining = append(remaining, task)
			}
		}
		removed = len(current.Tasks) - len(remaining)
		if removed == 0 {
			return current, false
		}
		next := current.Clone()
		next.Tasks = remaining
		return domain.NormalizeBoard(next, s.localNow()), true
	})
	s.mu.Unlock()
	if err != nil || !saved {
		return 0, err
	}

	s.metrics.Counter(observability.MetricTasksRemoved, int64(removed), observability.T("entry_id", s.entryID))
	s.logger.Info("removed done tasks", "removed", removed)
	s.notify(ctx, b, domain.ReasonCleanup)
	return removed, nil
}

// WeeklyRefresh rebuilds the board for the current week and returns the
// resulting task count. It always saves.
func (s *Store) WeeklyRefresh(ctx context.Context) (int, error) {
	timer := observability.StartTimer("board.weekly_refresh").
		WithMetrics(s.metrics).
		WithTags(observability.T("entry_id", s.entryID))

	s.mu.Lock()
	b, _, err := s.updateLocked(ctx, func(current domain.Board) (domain.Board, bool) {
		now := s.localNow()
		next := current.Clone()
		next.Templates, next.Tasks = domain.Refresh(next.Templates, next.Tasks, domain.DateOf(now), now)
		return domain.NormalizeBoard(next, now), true
	})
	s.mu.Unlock()
	elapsed := timer.StopWithError(err)
	if err != nil {
		return 0, err
	}

	s.logger.Info("weekly refresh completed",
		"tasks", len(b.Tasks),
		"templates", len(b.Templates),
		"duration_ms", elapsed.Milliseconds(),
	)
	s.notify(ctx, b, domain.ReasonRefresh)
	return len(b.Tasks), nil
}

// Invalidate drops the cached board so the next read goes to storage.
// Used when another process has saved the same entry.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.board = nil
	s.mu.Unlock()
	s.logger.Debug("board cache invalidated")
}

// PersonWeekStats reports one person's tasks for the week weekOffset weeks
// from the current one.
func (s *Store) PersonWeekStats(ctx context.Context, personID string, weekOffset int) (domain.WeekStats, error) {
	b, err := s.Load(ctx)
	if err != nil {
		return domain.WeekStats{}, err
	}
	return domain.PersonWeekStats(b, personID, weekOffset, s.Today()), nil
}

// NextTasksSummary lists the next open tasks, optionally for one person.
func (s *Store) NextTasksSummary(ctx context.Context, limit int, personID string) (domain.UpcomingSummary, error) {
	b, err := s.Load(ctx)
	if err != nil {
		return domain.UpcomingSummary{}, err
	}
	return domain.NextTasksSummary(b, limit, personID, s.Today()), nil
}

// notify runs after the commit and outside the lock. A failing subscriber
// is logged and otherwise ignored.
func (s *Store) notify(ctx context.Context, b domain.Board, reason string) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("board notifier panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	s.notifier.Notify(ctx, domain.NewBoardUpdated(s.entryID, b, reason))
}
