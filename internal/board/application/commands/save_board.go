package commands

import (
	"context"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

// SaveBoardCommand replaces a household board with an untrusted payload.
type SaveBoardCommand struct {
	EntryID string
	Board   domain.RawBoard
}

// SaveBoardResult contains the normalized board that was persisted.
type SaveBoardResult struct {
	Board domain.Board
}

// SaveBoardHandler handles the SaveBoardCommand.
type SaveBoardHandler struct {
	registry *application.Registry
}

// NewSaveBoardHandler creates a new SaveBoardHandler.
func NewSaveBoardHandler(registry *application.Registry) *SaveBoardHandler {
	return &SaveBoardHandler{registry: registry}
}

// Handle executes the SaveBoardCommand.
func (h *SaveBoardHandler) Handle(ctx context.Context, cmd SaveBoardCommand) (*SaveBoardResult, error) {
	store, err := h.registry.Get(cmd.EntryID)
	if err != nil {
		return nil, err
	}

	b, err := store.Save(ctx, cmd.Board)
	if err != nil {
		return nil, err
	}
	return &SaveBoardResult{Board: b}, nil
}
