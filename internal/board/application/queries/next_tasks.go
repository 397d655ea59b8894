package queries

import (
	"context"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

// DefaultNextTasksLimit is used when a query does not set a limit.
const DefaultNextTasksLimit = 3

// NextTasksQuery lists the next open tasks of a household.
type NextTasksQuery struct {
	EntryID  string
	Limit    *int
	PersonID string
}

// NextTasksHandler handles the NextTasksQuery.
type NextTasksHandler struct {
	registry *application.Registry
}

// NewNextTasksHandler creates a new NextTasksHandler.
func NewNextTasksHandler(registry *application.Registry) *NextTasksHandler {
	return &NextTasksHandler{registry: registry}
}

// Handle executes the NextTasksQuery.
func (h *NextTasksHandler) Handle(ctx context.Context, query NextTasksQuery) (*domain.UpcomingSummary, error) {
	store, err := h.registry.Get(query.EntryID)
	if err != nil {
		return nil, err
	}

	limit := DefaultNextTasksLimit
	if query.Limit != nil {
		limit = *query.Limit
	}

	summary, err := store.NextTasksSummary(ctx, limit, query.PersonID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}
