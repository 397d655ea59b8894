package domain

import (
	"slices"
	"time"
)

// CurrentSchemaVersion is the persisted document version. Version 1 boards
// predate templates and carry no end_date, fixed or week_start fields.
const CurrentSchemaVersion = 2

// Person is one household member shown in task chips.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Task is one card on the weekly board.
type Task struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Assignees  []string  `json:"assignees"`
	Column     Column    `json:"column"`
	Order      int       `json:"order"`
	CreatedAt  time.Time `json:"created_at"`
	EndDate    *Date     `json:"end_date,omitempty"`
	TemplateID string    `json:"template_id,omitempty"`
	Fixed      bool      `json:"fixed"`
	WeekStart  *Date     `json:"week_start,omitempty"`
	SpanID     string    `json:"span_id,omitempty"`
}

// Template is a recurring chore expanded into weekly task instances.
type Template struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Assignees []string  `json:"assignees"`
	EndDate   Date      `json:"end_date"`
	Weekdays  []Column  `json:"weekdays"`
	CreatedAt time.Time `json:"created_at"`
}

// Board is the complete state of one household.
type Board struct {
	People    []Person   `json:"people"`
	Tasks     []Task     `json:"tasks"`
	Templates []Template `json:"templates"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Generated reports whether the task was produced from a template.
func (t Task) Generated() bool {
	return t.Fixed && t.TemplateID != ""
}

// DueDate returns the day a weekday task falls on. Tasks without a week
// start belong to the week starting currentMonday. Tasks outside the weekday
// columns have no due date.
func (t Task) DueDate(currentMonday Date) (Date, bool) {
	if !t.Column.IsWeekday() {
		return Date{}, false
	}
	weekStart := currentMonday
	if t.WeekStart != nil {
		weekStart = t.WeekStart.WeekStart()
	}
	return weekStart.AddDays(t.Column.WeekdayIndex()), true
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := Board{
		People:    slices.Clone(b.People),
		Tasks:     make([]Task, len(b.Tasks)),
		Templates: make([]Template, len(b.Templates)),
		UpdatedAt: b.UpdatedAt,
	}
	for i, t := range b.Tasks {
		t.Assignees = slices.Clone(t.Assignees)
		if t.EndDate != nil {
			d := *t.EndDate
			t.EndDate = &d
		}
		if t.WeekStart != nil {
			d := *t.WeekStart
			t.WeekStart = &d
		}
		out.Tasks[i] = t
	}
	for i, tpl := range b.Templates {
		tpl.Assignees = slices.Clone(tpl.Assignees)
		tpl.Weekdays = slices.Clone(tpl.Weekdays)
		out.Templates[i] = tpl
	}
	if out.People == nil {
		out.People = []Person{}
	}
	return out
}

// PersonByID returns the person with the given id.
func (b Board) PersonByID(id string) (Person, bool) {
	for _, p := range b.People {
		if p.ID == id {
			return p, true
		}
	}
	return Person{}, false
}

// CountInColumn returns how many tasks sit in column c.
func (b Board) CountInColumn(c Column) int {
	n := 0
	for _, t := range b.Tasks {
		if t.Column == c {
			n++
		}
	}
	return n
}
