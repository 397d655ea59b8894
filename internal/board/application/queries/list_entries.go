package queries

import (
	"context"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
)

// ListEntriesHandler lists the configured households.
type ListEntriesHandler struct {
	registry *application.Registry
}

// NewListEntriesHandler creates a new ListEntriesHandler.
func NewListEntriesHandler(registry *application.Registry) *ListEntriesHandler {
	return &ListEntriesHandler{registry: registry}
}

// Handle returns every registered entry sorted by title.
func (h *ListEntriesHandler) Handle(_ context.Context) ([]application.Entry, error) {
	return h.registry.Entries(), nil
}
