package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Date is a calendar date without a time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Parsed dates stay far enough inside the four-digit year range that week
// arithmetic never leaves it.
const (
	minDateYear = 1
	maxDateYear = 9998
)

// ParseDate parses an ISO-8601 calendar date. Blank, malformed or out of
// range input reports false rather than an error.
func ParseDate(value string) (Date, bool) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return Date{}, false
	}
	for _, layout := range []string{"2006-01-02", "20060102"} {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if t.Year() < minDateYear || t.Year() > maxDateYear {
			return Date{}, false
		}
		return DateOf(t), true
	}
	return Date{}, false
}

// ParseDatePtr is ParseDate returning nil for unparseable input.
func ParseDatePtr(value string) *Date {
	d, ok := ParseDate(value)
	if !ok {
		return nil
	}
	return &d
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool { return d.Time().Before(other.Time()) }
func (d Date) After(other Date) bool  { return d.Time().After(other.Time()) }

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// ISOWeek returns the ISO-8601 week number.
func (d Date) ISOWeek() int {
	_, week := d.Time().ISOWeek()
	return week
}

// WeekStart returns the Monday of the ISO week containing d.
func (d Date) WeekStart() Date {
	return d.AddDays(-mondayOffset(d.Weekday()))
}

// WeekStartWithOffset returns the Monday offset by the given number of weeks.
func (d Date) WeekStartWithOffset(weeks int) Date {
	return d.WeekStart().AddDays(weeks * 7)
}

// Column returns the weekday column the date falls on.
func (d Date) Column() Column {
	return WeekdayColumns[mondayOffset(d.Weekday())]
}

// mondayOffset maps time.Weekday (Sunday=0) to a Monday-based index.
func mondayOffset(w time.Weekday) int {
	return (int(w) + 6) % 7
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes "YYYY-MM-DD". Typed decoding is strict; lenient
// decoding of untrusted payloads goes through the normalizer instead.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseDate(s)
	if !ok {
		return fmt.Errorf("invalid date %q", s)
	}
	*d = parsed
	return nil
}

// Today returns the current local date.
func Today(now time.Time, loc *time.Location) Date {
	if loc != nil {
		now = now.In(loc)
	}
	return DateOf(now)
}
