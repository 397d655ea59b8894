package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/application/commands"
	"github.com/felixgeelhaar/choreboard/internal/board/application/queries"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

// ToolDependencies provides the household boards to the MCP tools.
type ToolDependencies struct {
	Registry *application.Registry
}

type entryInput struct {
	EntryID string `json:"entry_id,omitempty"`
}

type saveBoardInput struct {
	EntryID string         `json:"entry_id,omitempty"`
	Board   map[string]any `json:"board" jsonschema:"required"`
}

type personWeekInput struct {
	EntryID    string `json:"entry_id,omitempty"`
	PersonID   string `json:"person_id" jsonschema:"required"`
	WeekOffset int    `json:"week_offset,omitempty"`
}

type nextTasksInput struct {
	EntryID  string `json:"entry_id,omitempty"`
	Limit    *int   `json:"limit,omitempty"`
	PersonID string `json:"person_id,omitempty"`
}

type entriesResult struct {
	Entries []application.Entry `json:"entries"`
}

// boardTools holds the handlers behind the tools.
type boardTools struct {
	registry        *application.Registry
	getBoard        *queries.GetBoardHandler
	personWeekStats *queries.PersonWeekStatsHandler
	nextTasks       *queries.NextTasksHandler
	listEntries     *queries.ListEntriesHandler
	saveBoard       *commands.SaveBoardHandler
	removeDoneTasks *commands.RemoveDoneTasksHandler
	weeklyRefresh   *commands.WeeklyRefreshHandler
}

func newBoardTools(registry *application.Registry) *boardTools {
	return &boardTools{
		registry:        registry,
		getBoard:        queries.NewGetBoardHandler(registry),
		personWeekStats: queries.NewPersonWeekStatsHandler(registry),
		nextTasks:       queries.NewNextTasksHandler(registry),
		listEntries:     queries.NewListEntriesHandler(registry),
		saveBoard:       commands.NewSaveBoardHandler(registry),
		removeDoneTasks: commands.NewRemoveDoneTasksHandler(registry),
		weeklyRefresh:   commands.NewWeeklyRefreshHandler(registry),
	}
}

// RegisterTools registers the board tools.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.Registry == nil {
		return errors.New("registry is required")
	}
	t := newBoardTools(deps.Registry)

	srv.Tool("board.entries").
		Description("List the configured household boards").
		Handler(t.entries)

	srv.Tool("board.get").
		Description("Load a household chore board").
		Handler(t.get)

	srv.Tool("board.save").
		Description("Replace a household chore board; the payload is normalized before it is stored").
		Handler(t.save)

	srv.Tool("board.cleanup").
		Description("Remove every task in the done column").
		Handler(t.cleanup)

	srv.Tool("board.refresh").
		Description("Rebuild the board for the current week from its recurring chores").
		Handler(t.refresh)

	srv.Tool("stats.person_week").
		Description("Summarize one person's chores for a week relative to the current one").
		Handler(t.personWeek)

	srv.Tool("stats.next_tasks").
		Description("List the next open chores, optionally for one person").
		Handler(t.next)

	return nil
}

func (t *boardTools) entries(ctx context.Context, _ entryInput) (*entriesResult, error) {
	entries, err := t.listEntries.Handle(ctx)
	if err != nil {
		return nil, err
	}
	return &entriesResult{Entries: entries}, nil
}

func (t *boardTools) get(ctx context.Context, input entryInput) (*domain.Board, error) {
	entryID, err := t.resolveEntry(input.EntryID)
	if err != nil {
		return nil, err
	}
	return t.getBoard.Handle(ctx, queries.GetBoardQuery{EntryID: entryID})
}

func (t *boardTools) save(ctx context.Context, input saveBoardInput) (*domain.Board, error) {
	entryID, err := t.resolveEntry(input.EntryID)
	if err != nil {
		return nil, err
	}
	if input.Board == nil {
		return nil, fmt.Errorf("%w: board is required", domain.ErrInvalidPayload)
	}
	result, err := t.saveBoard.Handle(ctx, commands.SaveBoardCommand{
		EntryID: entryID,
		Board:   domain.RawBoardFromMap(input.Board),
	})
	if err != nil {
		return nil, err
	}
	return &result.Board, nil
}

func (t *boardTools) cleanup(ctx context.Context, input entryInput) (*commands.RemoveDoneTasksResult, error) {
	entryID, err := t.resolveEntry(input.EntryID)
	if err != nil {
		return nil, err
	}
	return t.removeDoneTasks.Handle(ctx, commands.RemoveDoneTasksCommand{EntryID: entryID})
}

func (t *boardTools) refresh(ctx context.Context, input entryInput) (*commands.WeeklyRefreshResult, error) {
	entryID, err := t.resolveEntry(input.EntryID)
	if err != nil {
		return nil, err
	}
	return t.weeklyRefresh.Handle(ctx, commands.WeeklyRefreshCommand{EntryID: entryID})
}

func (t *boardTools) personWeek(ctx context.Context, input personWeekInput) (*domain.WeekStats, error) {
	entryID, err := t.resolveEntry(input.EntryID)
	if err != nil {
		return nil, err
	}
	if input.PersonID == "" {
		return nil, errors.New("person_id is required")
	}
	return t.personWeekStats.Handle(ctx, queries.PersonWeekStatsQuery{
		EntryID:    entryID,
		PersonID:   input.PersonID,
		WeekOffset: input.WeekOffset,
	})
}

func (t *boardTools) next(ctx context.Context, input nextTasksInput) (*domain.UpcomingSummary, error) {
	entryID, err := t.resolveEntry(input.EntryID)
	if err != nil {
		return nil, err
	}
	return t.nextTasks.Handle(ctx, queries.NextTasksQuery{
		EntryID:  entryID,
		Limit:    input.Limit,
		PersonID: input.PersonID,
	})
}

// resolveEntry defaults an empty entry id when exactly one household is
// configured.
func (t *boardTools) resolveEntry(entryID string) (string, error) {
	if entryID != "" {
		return entryID, nil
	}
	entries := t.registry.Entries()
	if len(entries) == 1 {
		return entries[0].EntryID, nil
	}
	return "", fmt.Errorf("entry_id is required when %d households are configured", len(entries))
}
