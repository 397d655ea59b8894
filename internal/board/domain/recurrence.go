package domain

import (
	"slices"
	"strings"
	"time"
)

// LookaheadWeeks is how many weeks, counting the current one, the engine
// pre-generates from templates.
const LookaheadWeeks = 4

// Refresh rebuilds the board's task list for the week containing today.
//
// Expired templates are retired. Done tasks, tasks past their end date,
// weekday tasks from earlier weeks and every template-generated task are
// dropped; the rest are kept. Each active template then emits one instance
// per weekday for the current week and the following three, skipping
// occurrences after its end date. The result still needs Normalize to
// re-derive per-column order.
func Refresh(templates []Template, tasks []Task, today Date, now time.Time) ([]Template, []Task) {
	stamp := now.UTC()
	currentMonday := today.WeekStart()

	active := make([]Template, 0, len(templates))
	for _, tpl := range templates {
		if tpl.EndDate.IsZero() || tpl.EndDate.Before(today) {
			continue
		}
		weekdays := parseWeekdays(columnsToStrings(tpl.Weekdays))
		if len(weekdays) == 0 {
			continue
		}
		active = append(active, revalidateTemplate(tpl, weekdays, stamp))
	}

	kept := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Column == ColumnDone {
			continue
		}
		if task.EndDate != nil && task.EndDate.Before(today) {
			continue
		}
		if task.Column.IsWeekday() {
			if task.WeekStart == nil {
				monday := currentMonday
				task.WeekStart = &monday
			}
			if task.WeekStart.Before(currentMonday) {
				continue
			}
		}
		if task.TemplateID != "" {
			continue
		}
		task.Assignees = slices.Clone(task.Assignees)
		kept = append(kept, task)
	}

	return active, append(kept, expandTemplates(active, currentMonday, stamp)...)
}

func revalidateTemplate(tpl Template, weekdays []Column, stamp time.Time) Template {
	if strings.TrimSpace(tpl.ID) == "" {
		tpl.ID = NewTemplateID()
	}
	tpl.Title = strings.TrimSpace(tpl.Title)
	if tpl.Title == "" {
		tpl.Title = DefaultTaskTitle
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = stamp
	}
	tpl.Assignees = slices.Clone(tpl.Assignees)
	if tpl.Assignees == nil {
		tpl.Assignees = []string{}
	}
	tpl.Weekdays = weekdays
	return tpl
}

func expandTemplates(templates []Template, startMonday Date, stamp time.Time) []Task {
	var generated []Task
	for _, tpl := range templates {
		for week := 0; week < LookaheadWeeks; week++ {
			weekStart := startMonday.AddDays(week * 7)
			for _, weekday := range tpl.Weekdays {
				occurrence := weekStart.AddDays(weekday.WeekdayIndex())
				if occurrence.After(tpl.EndDate) {
					continue
				}
				endDate := tpl.EndDate
				ws := weekStart
				generated = append(generated, Task{
					ID:         NewTaskID(),
					Title:      tpl.Title,
					Assignees:  slices.Clone(tpl.Assignees),
					Column:     weekday,
					Order:      0,
					CreatedAt:  stamp,
					EndDate:    &endDate,
					TemplateID: tpl.ID,
					Fixed:      true,
					WeekStart:  &ws,
				})
			}
		}
	}
	return generated
}

func columnsToStrings(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = string(c)
	}
	return out
}
