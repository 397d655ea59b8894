package domain

import (
	"sort"
	"strings"
	"time"
)

// Normalize repairs an untrusted payload into a well-formed Board. It never
// fails: malformed entries are dropped and missing fields defaulted. now
// should carry the household's local time zone; it decides the current week
// and stamps UpdatedAt.
//
// Normalize is idempotent apart from UpdatedAt.
func Normalize(raw RawBoard, now time.Time) Board {
	stamp := now.UTC()
	currentMonday := DateOf(now).WeekStart()

	people, known := normalizePeople(raw.People)

	templates := make([]Template, 0, len(raw.Templates))
	for _, item := range raw.Templates {
		rec, ok := asRecord(item)
		if !ok {
			continue
		}
		tpl, ok := templateFromRecord(rec, stamp)
		if !ok {
			continue
		}
		tpl.Assignees = filterKnown(tpl.Assignees, known)
		templates = append(templates, tpl)
	}

	tasks := make([]Task, 0, len(raw.Tasks))
	for index, item := range raw.Tasks {
		rec, ok := asRecord(item)
		if !ok {
			continue
		}
		task, ok := taskFromRecord(rec, index, stamp)
		if !ok {
			continue
		}
		task.Assignees = filterKnown(task.Assignees, known)
		if task.Column.IsWeekday() && task.WeekStart == nil {
			monday := currentMonday
			task.WeekStart = &monday
		}
		tasks = append(tasks, task)
	}

	return Board{
		People:    people,
		Tasks:     Rerank(tasks),
		Templates: templates,
		UpdatedAt: stamp,
	}
}

// NormalizeBoard pushes a typed board through Normalize.
func NormalizeBoard(b Board, now time.Time) Board {
	return Normalize(b.ToRaw(), now)
}

func normalizePeople(items []any) ([]Person, map[string]struct{}) {
	people := make([]Person, 0, len(items))
	known := make(map[string]struct{}, len(items))
	for _, item := range items {
		rec, ok := asRecord(item)
		if !ok {
			continue
		}
		id := strings.TrimSpace(rec.str("id"))
		if id == "" {
			id = NewPersonID()
		}
		if _, dup := known[id]; dup {
			continue
		}
		known[id] = struct{}{}

		name := strings.TrimSpace(rec.str("name"))
		if name == "" {
			name = DefaultPersonName
		}
		color := strings.TrimSpace(rec.str("color"))
		if color == "" {
			color = ColorAt(len(people))
		}
		people = append(people, Person{ID: id, Name: name, Color: color})
	}
	return people, known
}

// templateFromRecord validates one template entry. A template without a
// parseable end date or any recognised weekday is rejected as a whole.
func templateFromRecord(rec record, stamp time.Time) (Template, bool) {
	title, ok := titleOf(rec)
	if !ok {
		return Template{}, false
	}
	endDate, ok := ParseDate(rec.str("end_date"))
	if !ok {
		return Template{}, false
	}
	weekdays := parseWeekdays(rec.strList("weekdays"))
	if len(weekdays) == 0 {
		return Template{}, false
	}

	id := strings.TrimSpace(rec.str("id"))
	if id == "" {
		id = NewTemplateID()
	}
	return Template{
		ID:        id,
		Title:     title,
		Assignees: rec.strList("assignees"),
		EndDate:   endDate,
		Weekdays:  weekdays,
		CreatedAt: timestampOr(rec.str("created_at"), stamp),
	}, true
}

func taskFromRecord(rec record, index int, stamp time.Time) (Task, bool) {
	title, ok := titleOf(rec)
	if !ok {
		return Task{}, false
	}
	column, ok := ParseColumn(rec.str("column"))
	if !ok {
		column = ColumnBacklog
	}
	id := strings.TrimSpace(rec.str("id"))
	if id == "" {
		id = NewTaskID()
	}

	task := Task{
		ID:         id,
		Title:      title,
		Assignees:  rec.strList("assignees"),
		Column:     column,
		Order:      rec.intOr("order", index),
		CreatedAt:  timestampOr(rec.str("created_at"), stamp),
		EndDate:    ParseDatePtr(rec.str("end_date")),
		TemplateID: strings.TrimSpace(rec.str("template_id")),
		Fixed:      rec.truthy("fixed"),
		SpanID:     strings.TrimSpace(rec.str("span_id")),
	}
	if ws := ParseDatePtr(rec.str("week_start")); ws != nil {
		monday := ws.WeekStart()
		task.WeekStart = &monday
	}
	return task, true
}

// titleOf defaults a missing title and rejects a whitespace-only one.
func titleOf(rec record) (string, bool) {
	raw := rec.str("title")
	if raw == "" {
		return DefaultTaskTitle, true
	}
	title := strings.TrimSpace(raw)
	return title, title != ""
}

func parseWeekdays(values []string) []Column {
	out := make([]Column, 0, len(values))
	seen := make(map[Column]struct{}, len(values))
	for _, v := range values {
		c, ok := ParseColumn(v)
		if !ok || !c.IsWeekday() {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func filterKnown(ids []string, known map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// timestampOr reads a timestamp as UTC. Unparseable values and years that
// cannot be written back as RFC 3339 yield fallback.
func timestampOr(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02"} {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if y := t.UTC().Year(); y < 0 || y > 9999 {
			return fallback
		}
		return t.UTC()
	}
	return fallback
}

// Rerank sorts tasks by (column, order) and reassigns a dense 0-based order
// inside every column, keeping the relative sequence of equal keys.
func Rerank(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Column.Rank(), out[j].Column.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Order < out[j].Order
	})
	next := make(map[Column]int, len(AllColumns))
	for i := range out {
		out[i].Order = next[out[i].Column]
		next[out[i].Column]++
	}
	return out
}
