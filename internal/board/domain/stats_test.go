package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statsBoard(tasks ...Task) Board {
	return Board{
		People: []Person{
			{ID: "p1", Name: "Alex", Color: DefaultColors[0]},
			{ID: "p2", Name: "Sam", Color: DefaultColors[1]},
		},
		Tasks:     tasks,
		Templates: []Template{},
	}
}

func weekTask(id, title string, col Column, weekStart Date, assignees ...string) Task {
	return Task{ID: id, Title: title, Column: col, WeekStart: datePtr(weekStart), Assignees: assignees}
}

func TestPersonWeekStats_SpanDeduplication(t *testing.T) {
	b := statsBoard(
		Task{ID: "s-wed", Title: "Trip", Column: ColumnWednesday, WeekStart: datePtr(testMonday), SpanID: "span1", Assignees: []string{"p1"}},
		Task{ID: "s-mon", Title: "Trip", Column: ColumnMonday, WeekStart: datePtr(testMonday), SpanID: "span1", Assignees: []string{"p1"}},
		Task{ID: "s-tue", Title: "Trip", Column: ColumnTuesday, WeekStart: datePtr(testMonday), SpanID: "span1", Assignees: []string{"p1"}},
	)

	stats := PersonWeekStats(b, "p1", 0, testMonday)

	require.Len(t, stats.Tasks, 1)
	row := stats.Tasks[0]
	assert.Equal(t, []Column{ColumnMonday, ColumnTuesday, ColumnWednesday}, row.Days)
	assert.Equal(t, "monday", row.Day)
	assert.Equal(t, "open", row.State)
	assert.Equal(t, 1, stats.Total)
}

func TestPersonWeekStats_SpanAcrossWeeksStaysSeparate(t *testing.T) {
	next := testMonday.AddDays(7)
	b := statsBoard(
		Task{ID: "a", Title: "Trip", Column: ColumnSunday, WeekStart: datePtr(testMonday), SpanID: "span1", Assignees: []string{"p1"}},
		Task{ID: "b", Title: "Trip", Column: ColumnMonday, WeekStart: datePtr(next), SpanID: "span1", Assignees: []string{"p1"}},
	)

	assert.Equal(t, 1, PersonWeekStats(b, "p1", 0, testMonday).Total)
	assert.Equal(t, 1, PersonWeekStats(b, "p1", 1, testMonday).Total)
}

func TestPersonWeekStats_Counts(t *testing.T) {
	wednesday := testMonday.AddDays(2)
	b := statsBoard(
		weekTask("mon", "Past", ColumnMonday, testMonday, "p1"),
		weekTask("wed", "Today", ColumnWednesday, testMonday, "p1"),
		weekTask("fri", "Later", ColumnFriday, testMonday, "p1"),
		weekTask("done", "Finished", ColumnDone, testMonday, "p1"),
		weekTask("other", "Not mine", ColumnWednesday, testMonday, "p2"),
		weekTask("next", "Next week", ColumnWednesday, testMonday.AddDays(7), "p1"),
		Task{ID: "backlog", Title: "Backlog", Column: ColumnBacklog, Assignees: []string{"p1"}},
		Task{ID: "done-nowk", Title: "Done anytime", Column: ColumnDone, Assignees: []string{"p1"}},
	)

	stats := PersonWeekStats(b, "p1", 0, wednesday)

	assert.Equal(t, "p1", stats.PersonID)
	assert.Equal(t, "Alex", stats.PersonName)
	assert.Equal(t, testMonday, stats.WeekStart)
	assert.Equal(t, testMonday.AddDays(6), stats.WeekEnd)
	assert.Equal(t, 43, stats.WeekNumber)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 2, stats.Done)
	assert.Equal(t, 3, stats.Remaining)
	assert.Equal(t, 1, stats.Today)
	assert.Equal(t, 1, stats.Upcoming)

	var done []WeekTaskRow
	for _, row := range stats.Tasks {
		if row.Done {
			done = append(done, row)
		}
	}
	require.Len(t, done, 2)
	assert.Equal(t, "done", done[0].Day)
	assert.Equal(t, "done", done[0].State)
}

func TestPersonWeekStats_OtherWeeksHaveNoTodayCounts(t *testing.T) {
	next := testMonday.AddDays(7)
	b := statsBoard(
		weekTask("a", "A", ColumnMonday, next, "p1"),
		weekTask("b", "B", ColumnFriday, next, "p1"),
	)

	stats := PersonWeekStats(b, "p1", 1, testMonday)

	assert.Equal(t, 1, stats.WeekOffset)
	assert.Equal(t, next, stats.WeekStart)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 0, stats.Today)
	assert.Equal(t, 0, stats.Upcoming)
}

func TestPersonWeekStats_NameFallback(t *testing.T) {
	b := statsBoard(
		weekTask("legacy", "Legacy", ColumnTuesday, testMonday, "  alex "),
		weekTask("sam", "Sam's", ColumnTuesday, testMonday, "SAM"),
	)

	stats := PersonWeekStats(b, "p1", 0, testMonday)

	require.Len(t, stats.Tasks, 1)
	assert.Equal(t, "legacy", stats.Tasks[0].ID)
}

func TestPersonWeekStats_UnknownPerson(t *testing.T) {
	b := statsBoard(weekTask("a", "A", ColumnMonday, testMonday, "p1"))

	stats := PersonWeekStats(b, "ghost", 0, testMonday)

	assert.Empty(t, stats.PersonName)
	assert.Equal(t, 0, stats.Total)
	assert.NotNil(t, stats.Tasks)
}

func TestPersonWeekStats_DoneSpanOccurrenceMarksRowDone(t *testing.T) {
	b := statsBoard(
		Task{ID: "a", Title: "Trip", Column: ColumnMonday, WeekStart: datePtr(testMonday), SpanID: "s", Assignees: []string{"p1"}},
		Task{ID: "b", Title: "Trip", Column: ColumnDone, WeekStart: datePtr(testMonday), SpanID: "s", Assignees: []string{"p1"}},
	)

	stats := PersonWeekStats(b, "p1", 0, testMonday)

	require.Len(t, stats.Tasks, 1)
	assert.True(t, stats.Tasks[0].Done)
	assert.Equal(t, "monday", stats.Tasks[0].Day)
	assert.Equal(t, 0, stats.Today)
}

func TestNextTasksSummary_Ordering(t *testing.T) {
	wednesday := testMonday.AddDays(2)
	b := statsBoard(
		weekTask("d4", "Fourth", ColumnMonday, testMonday.AddDays(7), "p1"),
		weekTask("d2", "Second", ColumnThursday, testMonday, "p1"),
		weekTask("past", "Past", ColumnMonday, testMonday, "p1"),
		weekTask("d3", "Third", ColumnFriday, testMonday, "p2"),
		weekTask("d1", "First", ColumnWednesday, testMonday, "p1"),
		Task{ID: "done", Title: "Done", Column: ColumnDone, Assignees: []string{"p1"}},
		Task{ID: "backlog", Title: "Backlog", Column: ColumnBacklog},
	)

	summary := NextTasksSummary(b, 3, "", wednesday)

	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, []string{"First", "Second", "Third"}, summary.Titles)
	assert.Equal(t, []Date{wednesday, wednesday.AddDays(1), wednesday.AddDays(2)}, []Date{
		summary.Tasks[0].Date, summary.Tasks[1].Date, summary.Tasks[2].Date,
	})
	assert.Equal(t, []string{"Sam"}, summary.Tasks[2].AssigneeNames)
	assert.Equal(t, 43, summary.Tasks[0].WeekNumber)
}

func TestNextTasksSummary_TieBreak(t *testing.T) {
	b := statsBoard(
		Task{ID: "b", Title: "Bravo", Column: ColumnFriday, Order: 1, WeekStart: datePtr(testMonday)},
		Task{ID: "z", Title: "Zulu", Column: ColumnFriday, Order: 0, WeekStart: datePtr(testMonday)},
		Task{ID: "a", Title: "Alpha", Column: ColumnFriday, Order: 1, WeekStart: datePtr(testMonday)},
	)

	summary := NextTasksSummary(b, 10, "", testMonday)

	assert.Equal(t, []string{"Zulu", "Alpha", "Bravo"}, summary.Titles)
}

func TestNextTasksSummary_Limit(t *testing.T) {
	b := statsBoard(
		weekTask("a", "A", ColumnMonday, testMonday),
		weekTask("b", "B", ColumnTuesday, testMonday),
	)

	assert.Equal(t, 0, NextTasksSummary(b, -1, "", testMonday).Count)
	assert.Equal(t, 0, NextTasksSummary(b, 0, "", testMonday).Count)
	assert.Equal(t, 2, NextTasksSummary(b, 5, "", testMonday).Count)
	assert.NotNil(t, NextTasksSummary(b, 0, "", testMonday).Tasks)
}

func TestNextTasksSummary_PersonFilter(t *testing.T) {
	b := statsBoard(
		weekTask("a", "Alex by id", ColumnTuesday, testMonday, "p1"),
		weekTask("b", "Sam", ColumnTuesday, testMonday, "p2"),
		weekTask("c", "Alex by name", ColumnWednesday, testMonday, "ALEX"),
		weekTask("d", "Nobody", ColumnThursday, testMonday),
	)

	summary := NextTasksSummary(b, 10, "p1", testMonday)
	assert.Equal(t, []string{"Alex by id", "Alex by name"}, summary.Titles)

	unknown := NextTasksSummary(b, 10, "ghost", testMonday)
	assert.Equal(t, 0, unknown.Count)
}

func TestNextTasksSummary_SpanRange(t *testing.T) {
	b := statsBoard(
		Task{ID: "thu", Title: "Trip", Column: ColumnThursday, WeekStart: datePtr(testMonday), SpanID: "s", Order: 0},
		Task{ID: "fri", Title: "Trip", Column: ColumnFriday, WeekStart: datePtr(testMonday), SpanID: "s", Order: 0},
		Task{ID: "wed", Title: "Trip", Column: ColumnWednesday, WeekStart: datePtr(testMonday), SpanID: "s", Order: 0},
		Task{ID: "sat", Title: "Chores", Column: ColumnThursday, WeekStart: datePtr(testMonday), Order: 1},
	)

	summary := NextTasksSummary(b, 3, "", testMonday)

	require.Equal(t, 2, summary.Count)
	trip := summary.Tasks[0]
	assert.Equal(t, "s", trip.SpanID)
	assert.Equal(t, testMonday.AddDays(2), trip.Date)
	assert.Equal(t, testMonday.AddDays(2), trip.StartDate)
	assert.Equal(t, testMonday.AddDays(4), trip.EndDate)
	assert.Equal(t, ColumnWednesday, trip.Column)
	assert.Equal(t, "Chores", summary.Tasks[1].Title)
}

func TestWeekBounds(t *testing.T) {
	start, end, week := WeekBounds(Date{2026, time.October, 25}, 0)

	assert.Equal(t, testMonday, start)
	assert.Equal(t, Date{2026, time.October, 25}, end)
	assert.Equal(t, 43, week)
}
