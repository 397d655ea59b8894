package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrInvalidSpec is returned by OnSchedule for a spec that can never fire.
var ErrInvalidSpec = errors.New("invalid schedule spec")

// Spec describes when a trigger fires, as a wall-clock time in Location.
// An empty Weekdays list fires every day.
type Spec struct {
	Name     string
	Hour     int
	Minute   int
	Weekdays []time.Weekday
	Location *time.Location
}

// Daily returns a spec firing every day at hour:minute.
func Daily(name string, hour, minute int, loc *time.Location) Spec {
	return Spec{Name: name, Hour: hour, Minute: minute, Location: loc}
}

// Weekly returns a spec firing on weekday at hour:minute.
func Weekly(name string, weekday time.Weekday, hour, minute int, loc *time.Location) Spec {
	return Spec{Name: name, Hour: hour, Minute: minute, Weekdays: []time.Weekday{weekday}, Location: loc}
}

// Validate checks the wall-clock fields.
func (s Spec) Validate() error {
	if s.Hour < 0 || s.Hour > 23 {
		return fmt.Errorf("%w: hour %d", ErrInvalidSpec, s.Hour)
	}
	if s.Minute < 0 || s.Minute > 59 {
		return fmt.Errorf("%w: minute %d", ErrInvalidSpec, s.Minute)
	}
	for _, w := range s.Weekdays {
		if w < time.Sunday || w > time.Saturday {
			return fmt.Errorf("%w: weekday %d", ErrInvalidSpec, w)
		}
	}
	return nil
}

func (s Spec) location() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Next returns the first firing strictly after t.
func (s Spec) Next(t time.Time) (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}
	local := t.In(s.location())
	y, m, d := local.Date()
	// Start one day early so a firing later today is still reachable.
	start := time.Date(y, m, d, 0, 0, 0, 0, s.location()).AddDate(0, 0, -1)

	opt := rrule.ROption{
		Freq:     rrule.DAILY,
		Dtstart:  start,
		Byhour:   []int{s.Hour},
		Byminute: []int{s.Minute},
		Bysecond: []int{0},
	}
	if len(s.Weekdays) > 0 {
		opt.Freq = rrule.WEEKLY
		for _, w := range s.Weekdays {
			opt.Byweekday = append(opt.Byweekday, rruleWeekdays[w])
		}
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	next := rule.After(t, false)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("%w: %s never fires", ErrInvalidSpec, s.Name)
	}
	return next, nil
}

// Handler is run every time a trigger fires.
type Handler func(ctx context.Context)

// Status describes a registered trigger.
type Status struct {
	Name    string    `json:"name"`
	NextRun time.Time `json:"next_run"`
	LastRun time.Time `json:"last_run,omitempty"`
	Runs    int       `json:"runs"`
}

type trigger struct {
	spec    Spec
	handler Handler

	mu      sync.Mutex
	nextRun time.Time
	lastRun time.Time
	runs    int
}

// Scheduler runs handlers at the wall-clock times described by their specs.
type Scheduler struct {
	logger *slog.Logger
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time

	mu       sync.Mutex
	triggers []*trigger
}

// NewScheduler creates an idle scheduler.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}
}

// OnSchedule registers handler to run whenever spec fires. Triggers
// registered after Run has started are not picked up.
func (s *Scheduler) OnSchedule(spec Spec, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %s", ErrInvalidSpec, spec.Name)
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, &trigger{spec: spec, handler: handler})
	return nil
}

// Run blocks until ctx is done, firing triggers as they come due.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	triggers := append([]*trigger(nil), s.triggers...)
	s.mu.Unlock()

	s.logger.Info("scheduler started", "triggers", len(triggers))

	var wg sync.WaitGroup
	for _, t := range triggers {
		wg.Add(1)
		go func(t *trigger) {
			defer wg.Done()
			s.loop(ctx, t)
		}(t)
	}
	wg.Wait()

	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

func (s *Scheduler) loop(ctx context.Context, t *trigger) {
	for {
		now := s.now()
		next, err := t.spec.Next(now)
		if err != nil {
			s.logger.Error("trigger disabled", "trigger", t.spec.Name, "error", err)
			return
		}
		t.mu.Lock()
		t.nextRun = next
		t.mu.Unlock()

		s.logger.Debug("trigger armed", "trigger", t.spec.Name, "next_run", next)

		select {
		case <-ctx.Done():
			return
		case <-s.after(next.Sub(now)):
		}
		s.fire(ctx, t)
	}
}

func (s *Scheduler) fire(ctx context.Context, t *trigger) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("trigger panicked",
				"trigger", t.spec.Name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	t.mu.Lock()
	t.lastRun = s.now()
	t.runs++
	t.mu.Unlock()

	t.handler(ctx)
}

// Statuses reports every registered trigger.
func (s *Scheduler) Statuses() []Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Status, 0, len(s.triggers))
	for _, t := range s.triggers {
		t.mu.Lock()
		out = append(out, Status{
			Name:    t.spec.Name,
			NextRun: t.nextRun,
			LastRun: t.lastRun,
			Runs:    t.runs,
		})
		t.mu.Unlock()
	}
	return out
}
