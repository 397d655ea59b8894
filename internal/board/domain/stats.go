package domain

import (
	"fmt"
	"sort"
	"strings"
)

// WeekTaskRow is one logical task in a person's week. A span shows up once,
// with every weekday it occupies listed in Days.
type WeekTaskRow struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Done       bool     `json:"done"`
	Fixed      bool     `json:"fixed"`
	TemplateID string   `json:"template_id"`
	EndDate    string   `json:"end_date"`
	Days       []Column `json:"days"`
	Day        string   `json:"day"`
	State      string   `json:"state"`
}

// WeekStats summarises one person's tasks for a single week.
type WeekStats struct {
	PersonID   string        `json:"person_id"`
	PersonName string        `json:"person_name"`
	WeekOffset int           `json:"week_offset"`
	WeekStart  Date          `json:"week_start"`
	WeekEnd    Date          `json:"week_end"`
	WeekNumber int           `json:"week_number"`
	Total      int           `json:"total"`
	Done       int           `json:"done"`
	Remaining  int           `json:"remaining"`
	Today      int           `json:"today"`
	Upcoming   int           `json:"upcoming"`
	Tasks      []WeekTaskRow `json:"tasks"`
}

// UpcomingTask is one open task with a concrete due date.
type UpcomingTask struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Date          Date     `json:"date"`
	StartDate     Date     `json:"start_date"`
	EndDate       Date     `json:"end_date"`
	Column        Column   `json:"column"`
	WeekStart     Date     `json:"week_start"`
	WeekNumber    int      `json:"week_number"`
	Assignees     []string `json:"assignees"`
	AssigneeNames []string `json:"assignee_names"`
	SpanID        string   `json:"span_id"`
	Order         int      `json:"order"`
}

// UpcomingSummary is the result of NextTasksSummary.
type UpcomingSummary struct {
	Count  int            `json:"count"`
	Tasks  []UpcomingTask `json:"tasks"`
	Titles []string       `json:"titles"`
}

// WeekBounds returns the Monday and Sunday of the week offset weeks away from
// today, together with its ISO week number.
func WeekBounds(today Date, offset int) (Date, Date, int) {
	start := today.WeekStartWithOffset(offset)
	return start, start.AddDays(6), start.ISOWeek()
}

// assigneeMatcher reports whether an assignee list names a person, either by
// id or, for legacy rows, by case-insensitive name.
type assigneeMatcher struct {
	id      string
	nameKey string
}

func newAssigneeMatcher(b Board, personID string) assigneeMatcher {
	m := assigneeMatcher{id: strings.TrimSpace(personID)}
	if p, ok := b.PersonByID(m.id); ok {
		m.nameKey = strings.ToLower(strings.TrimSpace(p.Name))
	}
	return m
}

func (m assigneeMatcher) matches(assignees []string) bool {
	for _, a := range assignees {
		a = strings.TrimSpace(a)
		if a == m.id {
			return true
		}
		if m.nameKey != "" && strings.ToLower(a) == m.nameKey {
			return true
		}
	}
	return false
}

// PersonWeekStats collects the tasks assigned to personID in the week
// weekOffset weeks away from today. Rows sharing a span id inside the same
// week collapse into one; a row counts as done when any of its occurrences is
// in the done column. Today and Upcoming are only filled for the current week.
func PersonWeekStats(b Board, personID string, weekOffset int, today Date) WeekStats {
	start, end, weekNumber := WeekBounds(today, weekOffset)
	matcher := newAssigneeMatcher(b, personID)

	stats := WeekStats{
		PersonID:   personID,
		WeekOffset: weekOffset,
		WeekStart:  start,
		WeekEnd:    end,
		WeekNumber: weekNumber,
		Tasks:      []WeekTaskRow{},
	}
	if p, ok := b.PersonByID(matcher.id); ok {
		stats.PersonName = strings.TrimSpace(p.Name)
	}

	index := make(map[string]int)
	for _, task := range b.Tasks {
		if !matcher.matches(task.Assignees) {
			continue
		}
		column := task.Column
		if column == "" {
			column = ColumnMonday
		}
		taskWeek := start
		if task.WeekStart != nil {
			taskWeek = task.WeekStart.WeekStart()
		}
		if taskWeek != start {
			continue
		}
		if !column.IsWeekday() && column != ColumnDone {
			continue
		}

		key := weekRowKey(task, taskWeek, len(index))
		pos, ok := index[key]
		if !ok {
			row := WeekTaskRow{
				ID:         task.ID,
				Title:      task.Title,
				Fixed:      task.Fixed,
				TemplateID: task.TemplateID,
				Days:       []Column{},
			}
			if row.Title == "" {
				row.Title = DefaultTaskTitle
			}
			if task.EndDate != nil {
				row.EndDate = task.EndDate.String()
			}
			stats.Tasks = append(stats.Tasks, row)
			pos = len(stats.Tasks) - 1
			index[key] = pos
		}
		row := &stats.Tasks[pos]
		if column == ColumnDone {
			row.Done = true
		} else if !containsColumn(row.Days, column) {
			row.Days = append(row.Days, column)
		}
	}

	todayColumn := today.Column()
	for i := range stats.Tasks {
		row := &stats.Tasks[i]
		sort.SliceStable(row.Days, func(a, c int) bool {
			return row.Days[a].WeekdayIndex() < row.Days[c].WeekdayIndex()
		})
		switch {
		case len(row.Days) > 0:
			row.Day = string(row.Days[0])
		case row.Done:
			row.Day = string(ColumnDone)
		}
		row.State = "open"
		if row.Done {
			row.State = "done"
			stats.Done++
		}

		if weekOffset != 0 || row.Done {
			continue
		}
		if containsColumn(row.Days, todayColumn) {
			stats.Today++
			continue
		}
		for _, d := range row.Days {
			if d.WeekdayIndex() > todayColumn.WeekdayIndex() {
				stats.Upcoming++
				break
			}
		}
	}
	stats.Total = len(stats.Tasks)
	stats.Remaining = stats.Total - stats.Done
	return stats
}

func weekRowKey(task Task, weekStart Date, seen int) string {
	if task.SpanID != "" {
		return fmt.Sprintf("span:%s:%s", task.SpanID, weekStart)
	}
	if task.ID != "" {
		return task.ID
	}
	return fmt.Sprintf("row:%d", seen)
}

// NextTasksSummary lists up to limit open weekday tasks due today or later,
// ordered by due date, then declared order, then title. A non-empty personID
// restricts the result to that person's tasks. Span rows collapse into one
// task covering the earliest to the latest occurrence.
func NextTasksSummary(b Board, limit int, personID string, today Date) UpcomingSummary {
	currentMonday := today.WeekStart()
	names := make(map[string]string, len(b.People))
	for _, p := range b.People {
		names[p.ID] = p.Name
	}
	filter := strings.TrimSpace(personID) != ""
	matcher := newAssigneeMatcher(b, personID)

	var rows []UpcomingTask
	index := make(map[string]int)
	for _, task := range b.Tasks {
		if !task.Column.IsWeekday() {
			continue
		}
		weekStart := currentMonday
		if task.WeekStart != nil {
			weekStart = task.WeekStart.WeekStart()
		}
		due := weekStart.AddDays(task.Column.WeekdayIndex())
		if due.Before(today) {
			continue
		}
		if filter && !matcher.matches(task.Assignees) {
			continue
		}

		key := "task:" + task.ID
		if task.SpanID != "" {
			key = fmt.Sprintf("span:%s:%s", task.SpanID, weekStart)
		}
		if pos, ok := index[key]; ok {
			row := &rows[pos]
			if due.Before(row.StartDate) {
				row.StartDate = due
				row.Date = due
				row.Column = task.Column
			}
			if due.After(row.EndDate) {
				row.EndDate = due
			}
			continue
		}

		assignees := make([]string, 0, len(task.Assignees))
		assigneeNames := make([]string, 0, len(task.Assignees))
		for _, a := range task.Assignees {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			assignees = append(assignees, a)
			if name, ok := names[a]; ok {
				assigneeNames = append(assigneeNames, name)
			} else {
				assigneeNames = append(assigneeNames, a)
			}
		}
		title := task.Title
		if title == "" {
			title = DefaultTaskTitle
		}
		index[key] = len(rows)
		rows = append(rows, UpcomingTask{
			ID:            task.ID,
			Title:         title,
			Date:          due,
			StartDate:     due,
			EndDate:       due,
			Column:        task.Column,
			WeekStart:     due.WeekStart(),
			WeekNumber:    due.ISOWeek(),
			Assignees:     assignees,
			AssigneeNames: assigneeNames,
			SpanID:        task.SpanID,
			Order:         task.Order,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date.Before(rows[j].Date)
		}
		if rows[i].Order != rows[j].Order {
			return rows[i].Order < rows[j].Order
		}
		return rows[i].Title < rows[j].Title
	})

	if limit < 0 {
		limit = 0
	}
	if limit < len(rows) {
		rows = rows[:limit]
	}
	summary := UpcomingSummary{
		Count:  len(rows),
		Tasks:  make([]UpcomingTask, 0, len(rows)),
		Titles: make([]string, 0, len(rows)),
	}
	for _, row := range rows {
		summary.Tasks = append(summary.Tasks, row)
		summary.Titles = append(summary.Titles, row.Title)
	}
	return summary
}

func containsColumn(cols []Column, c Column) bool {
	for _, col := range cols {
		if col == c {
			return true
		}
	}
	return false
}
