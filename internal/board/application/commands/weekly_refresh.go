package commands

import (
	"context"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
)

// WeeklyRefreshCommand rebuilds a household board for the current week.
type WeeklyRefreshCommand struct {
	EntryID string
}

// WeeklyRefreshResult reports the task count after the refresh.
type WeeklyRefreshResult struct {
	TaskCount int `json:"task_count"`
}

// WeeklyRefreshHandler handles the WeeklyRefreshCommand.
type WeeklyRefreshHandler struct {
	registry *application.Registry
}

// NewWeeklyRefreshHandler creates a new WeeklyRefreshHandler.
func NewWeeklyRefreshHandler(registry *application.Registry) *WeeklyRefreshHandler {
	return &WeeklyRefreshHandler{registry: registry}
}

// Handle executes the WeeklyRefreshCommand.
func (h *WeeklyRefreshHandler) Handle(ctx context.Context, cmd WeeklyRefreshCommand) (*WeeklyRefreshResult, error) {
	store, err := h.registry.Get(cmd.EntryID)
	if err != nil {
		return nil, err
	}

	count, err := store.WeeklyRefresh(ctx)
	if err != nil {
		return nil, err
	}
	return &WeeklyRefreshResult{TaskCount: count}, nil
}
