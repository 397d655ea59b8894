package queries

import (
	"context"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

// PersonWeekStatsQuery selects one person and a week relative to the
// current one.
type PersonWeekStatsQuery struct {
	EntryID    string
	PersonID   string
	WeekOffset int
}

// PersonWeekStatsHandler handles the PersonWeekStatsQuery.
type PersonWeekStatsHandler struct {
	registry *application.Registry
}

// NewPersonWeekStatsHandler creates a new PersonWeekStatsHandler.
func NewPersonWeekStatsHandler(registry *application.Registry) *PersonWeekStatsHandler {
	return &PersonWeekStatsHandler{registry: registry}
}

// Handle executes the PersonWeekStatsQuery.
func (h *PersonWeekStatsHandler) Handle(ctx context.Context, query PersonWeekStatsQuery) (*domain.WeekStats, error) {
	store, err := h.registry.Get(query.EntryID)
	if err != nil {
		return nil, err
	}

	stats, err := store.PersonWeekStats(ctx, query.PersonID, query.WeekOffset)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
