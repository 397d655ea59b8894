package queries

import (
	"context"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

// GetBoardQuery contains the parameters for loading a household board.
type GetBoardQuery struct {
	EntryID string
}

// GetBoardHandler handles the GetBoardQuery.
type GetBoardHandler struct {
	registry *application.Registry
}

// NewGetBoardHandler creates a new GetBoardHandler.
func NewGetBoardHandler(registry *application.Registry) *GetBoardHandler {
	return &GetBoardHandler{registry: registry}
}

// Handle executes the GetBoardQuery.
func (h *GetBoardHandler) Handle(ctx context.Context, query GetBoardQuery) (*domain.Board, error) {
	store, err := h.registry.Get(query.EntryID)
	if err != nil {
		return nil, err
	}

	b, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
