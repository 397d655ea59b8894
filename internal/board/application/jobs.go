package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/choreboard/internal/scheduling"
)

// Trigger is the periodic-trigger host the jobs are registered with.
type Trigger interface {
	OnSchedule(spec scheduling.Spec, handler scheduling.Handler) error
}

// Schedule holds the local wall-clock times of a household's jobs.
type Schedule struct {
	RefreshWeekday time.Weekday
	RefreshHour    int
	RefreshMinute  int
	CleanupHour    int
	CleanupMinute  int
}

// DefaultSchedule refreshes on Sunday at 00:30 and cleans up nightly at 03:00.
func DefaultSchedule() Schedule {
	return Schedule{
		RefreshWeekday: time.Sunday,
		RefreshHour:    0,
		RefreshMinute:  30,
		CleanupHour:    3,
		CleanupMinute:  0,
	}
}

// RegisterJobs wires the nightly cleanup and the weekly refresh of every
// store in the registry. schedules is keyed by entry id; entries without a
// schedule use DefaultSchedule.
func RegisterJobs(trigger Trigger, registry *Registry, schedules map[string]Schedule, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, store := range registry.Stores() {
		sched, ok := schedules[store.EntryID()]
		if !ok {
			sched = DefaultSchedule()
		}
		if err := registerStoreJobs(trigger, store, sched, logger); err != nil {
			return fmt.Errorf("register jobs for %s: %w", store.EntryID(), err)
		}
	}
	return nil
}

func registerStoreJobs(trigger Trigger, store *Store, sched Schedule, logger *slog.Logger) error {
	log := logger.With("entry_id", store.EntryID())
	loc := store.Location()

	cleanup := scheduling.Daily(store.EntryID()+".cleanup", sched.CleanupHour, sched.CleanupMinute, loc)
	if err := trigger.OnSchedule(cleanup, NightlyCleanupJob(store, log)); err != nil {
		return err
	}

	refresh := scheduling.Weekly(store.EntryID()+".refresh", sched.RefreshWeekday, sched.RefreshHour, sched.RefreshMinute, loc)
	return trigger.OnSchedule(refresh, WeeklyRefreshJob(store, sched.RefreshWeekday, log))
}

// NightlyCleanupJob removes done tasks. The store logs what was removed.
func NightlyCleanupJob(store *Store, logger *slog.Logger) scheduling.Handler {
	return func(ctx context.Context) {
		_, err := store.RemoveDoneTasks(ctx)
		if err != nil {
			logger.Error("nightly cleanup failed", "error", err)
		}
	}
}

// WeeklyRefreshJob rebuilds the week, but only when the household's local
// weekday is the configured refresh day. The store logs the result.
func WeeklyRefreshJob(store *Store, weekday time.Weekday, logger *slog.Logger) scheduling.Handler {
	return func(ctx context.Context) {
		if store.localNow().Weekday() != weekday {
			logger.Debug("weekly refresh skipped", "weekday", store.localNow().Weekday())
			return
		}
		if _, err := store.WeeklyRefresh(ctx); err != nil {
			logger.Error("weekly refresh failed", "error", err)
		}
	}
}
