package api

import (
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

// PropXEntry tags events with the household they belong to.
const PropXEntry = "X-CHOREBOARD-ENTRY"

// buildCalendar turns every open weekday task into an all-day event on its
// due date.
func buildCalendar(entryID, title string, b domain.Board, today domain.Date) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//Choreboard//Chore Board//EN")
	cal.Props.SetText("X-WR-CALNAME", title)

	names := make(map[string]string, len(b.People))
	for _, p := range b.People {
		names[p.ID] = p.Name
	}

	stamp := b.UpdatedAt.UTC()
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	monday := today.WeekStart()

	for _, task := range b.Tasks {
		due, ok := task.DueDate(monday)
		if !ok {
			continue
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, task.ID+"@"+entryID)
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		event.Props.SetDate(ical.PropDateTimeStart, due.Time())
		event.Props.SetDate(ical.PropDateTimeEnd, due.AddDays(1).Time())
		event.Props.SetText(ical.PropSummary, task.Title)

		var assignees []string
		for _, id := range task.Assignees {
			if name, ok := names[id]; ok {
				assignees = append(assignees, name)
			}
		}
		if len(assignees) > 0 {
			event.Props.SetText(ical.PropDescription, "Assigned to "+strings.Join(assignees, ", "))
		}

		entryProp := ical.NewProp(PropXEntry)
		entryProp.Value = entryID
		event.Props[PropXEntry] = []ical.Prop{*entryProp}

		cal.Children = append(cal.Children, event.Component)
	}
	return cal
}

func writeCalendar(w io.Writer, entryID, title string, b domain.Board, today domain.Date) error {
	return ical.NewEncoder(w).Encode(buildCalendar(entryID, title, b, today))
}
