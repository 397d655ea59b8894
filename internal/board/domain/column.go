package domain

import "strings"

// Column is a task's placement on the board.
type Column string

const (
	ColumnBacklog   Column = "backlog"
	ColumnMonday    Column = "monday"
	ColumnTuesday   Column = "tuesday"
	ColumnWednesday Column = "wednesday"
	ColumnThursday  Column = "thursday"
	ColumnFriday    Column = "friday"
	ColumnSaturday  Column = "saturday"
	ColumnSunday    Column = "sunday"
	ColumnDone      Column = "done"
)

// WeekdayColumns lists the weekday columns Monday first.
var WeekdayColumns = []Column{
	ColumnMonday,
	ColumnTuesday,
	ColumnWednesday,
	ColumnThursday,
	ColumnFriday,
	ColumnSaturday,
	ColumnSunday,
}

// AllColumns is the fixed display and sort order of columns.
var AllColumns = []Column{
	ColumnBacklog,
	ColumnMonday,
	ColumnTuesday,
	ColumnWednesday,
	ColumnThursday,
	ColumnFriday,
	ColumnSaturday,
	ColumnSunday,
	ColumnDone,
}

// DefaultColors is the palette people cycle through when no color is set.
var DefaultColors = []string{
	"#E11D48",
	"#2563EB",
	"#059669",
	"#D97706",
	"#7C3AED",
	"#0E7490",
	"#BE123C",
	"#4F46E5",
	"#15803D",
}

const (
	DefaultPersonName = "Person"
	DefaultTaskTitle  = "Untitled task"
)

// ParseColumn lower-cases and trims value and reports whether it names a column.
func ParseColumn(value string) (Column, bool) {
	c := Column(strings.ToLower(strings.TrimSpace(value)))
	return c, c.IsValid()
}

// IsValid reports whether c is one of AllColumns.
func (c Column) IsValid() bool {
	return c.Rank() >= 0
}

// IsWeekday reports whether c is a weekday column.
func (c Column) IsWeekday() bool {
	return c.WeekdayIndex() >= 0
}

// WeekdayIndex returns 0 for Monday through 6 for Sunday, or -1.
func (c Column) WeekdayIndex() int {
	for i, w := range WeekdayColumns {
		if w == c {
			return i
		}
	}
	return -1
}

// Rank returns the position of c in AllColumns, or -1.
func (c Column) Rank() int {
	for i, col := range AllColumns {
		if col == c {
			return i
		}
	}
	return -1
}

// ColorAt returns the palette color for a zero-based position.
func ColorAt(position int) string {
	return DefaultColors[position%len(DefaultColors)]
}
