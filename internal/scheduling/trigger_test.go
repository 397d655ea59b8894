package scheduling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpec_NextDaily(t *testing.T) {
	loc := time.UTC
	spec := Daily("cleanup", 3, 0, loc)

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before today's run", time.Date(2026, 10, 19, 1, 0, 0, 0, loc), time.Date(2026, 10, 19, 3, 0, 0, 0, loc)},
		{"exactly at run", time.Date(2026, 10, 19, 3, 0, 0, 0, loc), time.Date(2026, 10, 20, 3, 0, 0, 0, loc)},
		{"after today's run", time.Date(2026, 10, 19, 22, 15, 0, 0, loc), time.Date(2026, 10, 20, 3, 0, 0, 0, loc)},
		{"month boundary", time.Date(2026, 10, 31, 4, 0, 0, 0, loc), time.Date(2026, 11, 1, 3, 0, 0, 0, loc)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := spec.Next(tc.now)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s want %s", got, tc.want)
		})
	}
}

func TestSpec_NextWeekly(t *testing.T) {
	loc := time.UTC
	spec := Weekly("refresh", time.Sunday, 0, 30, loc)

	// Monday 2026-10-19 -> Sunday 2026-10-25 00:30.
	got, err := spec.Next(time.Date(2026, 10, 19, 12, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 10, 25, 0, 30, 0, 0, loc).Equal(got), got.String())

	// Sunday after the run -> next Sunday.
	got, err = spec.Next(time.Date(2026, 10, 25, 0, 31, 0, 0, loc))
	require.NoError(t, err)
	assert.True(t, time.Date(2026, 11, 1, 0, 30, 0, 0, loc).Equal(got), got.String())
}

func TestSpec_NextUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	spec := Daily("cleanup", 3, 0, loc)

	got, err := spec.Next(time.Date(2026, 10, 19, 0, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	// 00:30 UTC is 02:30 local, so the next run is 03:00 local the same day.
	assert.True(t, time.Date(2026, 10, 19, 1, 0, 0, 0, time.UTC).Equal(got), got.String())
}

func TestSpec_Validate(t *testing.T) {
	assert.NoError(t, Daily("ok", 23, 59, nil).Validate())
	assert.ErrorIs(t, Daily("hour", 24, 0, nil).Validate(), ErrInvalidSpec)
	assert.ErrorIs(t, Daily("minute", 1, 60, nil).Validate(), ErrInvalidSpec)
	assert.ErrorIs(t, Weekly("weekday", time.Weekday(9), 1, 0, nil).Validate(), ErrInvalidSpec)
}

func TestScheduler_OnScheduleRejectsInvalid(t *testing.T) {
	s := NewScheduler(nil)

	assert.ErrorIs(t, s.OnSchedule(Daily("bad", -1, 0, nil), func(context.Context) {}), ErrInvalidSpec)
	assert.ErrorIs(t, s.OnSchedule(Daily("nil", 1, 0, nil), nil), ErrInvalidSpec)
	assert.Empty(t, s.Statuses())
}

func TestScheduler_RunFiresHandler(t *testing.T) {
	now := time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)
	s := NewScheduler(nil)
	s.now = func() time.Time { return now }

	var mu sync.Mutex
	var waits []time.Duration
	s.after = func(d time.Duration) <-chan time.Time {
		mu.Lock()
		defer mu.Unlock()
		waits = append(waits, d)
		ch := make(chan time.Time, 1)
		if len(waits) == 1 {
			ch <- now.Add(d)
		}
		return ch
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan struct{})
	require.NoError(t, s.OnSchedule(Daily("cleanup", 3, 0, time.UTC), func(context.Context) {
		close(fired)
	}))

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not fire")
	}
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, waits)
	assert.Equal(t, time.Hour, waits[0])

	statuses := s.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, "cleanup", statuses[0].Name)
	assert.Equal(t, 1, statuses[0].Runs)
}

func TestScheduler_PanickingHandlerKeepsRunning(t *testing.T) {
	now := time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)
	s := NewScheduler(nil)
	s.now = func() time.Time { return now }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	calls := 0
	s.after = func(time.Duration) <-chan time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls++
		ch := make(chan time.Time, 1)
		if calls <= 2 {
			ch <- now
		}
		return ch
	}

	runs := make(chan struct{}, 2)
	require.NoError(t, s.OnSchedule(Daily("boom", 3, 0, time.UTC), func(context.Context) {
		runs <- struct{}{}
		panic("boom")
	}))

	go func() { _ = s.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case <-runs:
		case <-time.After(2 * time.Second):
			t.Fatalf("run %d did not happen", i+1)
		}
	}
}
