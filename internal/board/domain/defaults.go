package domain

import (
	"fmt"
	"time"
)

// MembersFromNames turns configured member names into person seeds.
func MembersFromNames(names []string) []Person {
	people := make([]Person, 0, len(names))
	for _, name := range names {
		people = append(people, Person{Name: name})
	}
	return people
}

// DefaultBoard seeds a board for a newly configured household: one person
// per member and one task per chore, spread round-robin over people and the
// seven weekday columns in declaration order. Members without an id get
// person_<index>, members without a color take the palette color of their
// position.
func DefaultBoard(members []Person, chores []string, now time.Time) Board {
	stamp := now.UTC()
	monday := DateOf(now).WeekStart()

	people := make([]Person, 0, len(members))
	for i, m := range members {
		if m.ID == "" {
			m.ID = fmt.Sprintf("person_%d", i)
		}
		if m.Name == "" {
			m.Name = DefaultPersonName
		}
		if m.Color == "" {
			m.Color = ColorAt(i)
		}
		people = append(people, m)
	}

	tasks := make([]Task, 0, len(chores))
	for i, title := range chores {
		assignees := []string{}
		if len(people) > 0 {
			assignees = []string{people[i%len(people)].ID}
		}
		ws := monday
		tasks = append(tasks, Task{
			ID:        NewTaskID(),
			Title:     title,
			Assignees: assignees,
			Column:    WeekdayColumns[i%len(WeekdayColumns)],
			Order:     i,
			CreatedAt: stamp,
			WeekStart: &ws,
		})
	}

	return Board{
		People:    people,
		Tasks:     tasks,
		Templates: []Template{},
		UpdatedAt: stamp,
	}
}
