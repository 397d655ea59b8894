package commands

import (
	"context"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
)

// RemoveDoneTasksCommand clears the done column of a household board.
type RemoveDoneTasksCommand struct {
	EntryID string
}

// RemoveDoneTasksResult reports how many tasks were removed.
type RemoveDoneTasksResult struct {
	Removed int `json:"removed"`
}

// RemoveDoneTasksHandler handles the RemoveDoneTasksCommand.
type RemoveDoneTasksHandler struct {
	registry *application.Registry
}

// NewRemoveDoneTasksHandler creates a new RemoveDoneTasksHandler.
func NewRemoveDoneTasksHandler(registry *application.Registry) *RemoveDoneTasksHandler {
	return &RemoveDoneTasksHandler{registry: registry}
}

// Handle executes the RemoveDoneTasksCommand.
func (h *RemoveDoneTasksHandler) Handle(ctx context.Context, cmd RemoveDoneTasksCommand) (*RemoveDoneTasksResult, error) {
	store, err := h.registry.Get(cmd.EntryID)
	if err != nil {
		return nil, err
	}

	removed, err := store.RemoveDoneTasks(ctx)
	if err != nil {
		return nil, err
	}
	return &RemoveDoneTasksResult{Removed: removed}, nil
}
