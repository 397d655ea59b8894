package domain

import (
	"encoding/json"
	"time"

	sharedDomain "github.com/felixgeelhaar/choreboard/internal/shared/domain"
)

const (
	// AggregateType names the board aggregate on the event bus.
	AggregateType = "Board"
	// RoutingKeyBoardUpdated is published once per committed save.
	RoutingKeyBoardUpdated = "board.updated"
)

// Reasons a board was saved.
const (
	ReasonSave    = "save"
	ReasonCleanup = "cleanup"
	ReasonRefresh = "refresh"
)

// BoardUpdated is emitted after a board has been persisted.
type BoardUpdated struct {
	sharedDomain.BaseEvent
	EntryID   string
	UpdatedAt time.Time
	TaskCount int
	Reason    string
}

// NewBoardUpdated builds the event for a committed board.
func NewBoardUpdated(entryID string, b Board, reason string) *BoardUpdated {
	return &BoardUpdated{
		BaseEvent: sharedDomain.NewBaseEvent(entryID, AggregateType, RoutingKeyBoardUpdated),
		EntryID:   entryID,
		UpdatedAt: b.UpdatedAt,
		TaskCount: len(b.Tasks),
		Reason:    reason,
	}
}

type boardUpdatedJSON struct {
	EventID   string    `json:"event_id"`
	EntryID   string    `json:"entry_id"`
	UpdatedAt time.Time `json:"updated_at"`
	TaskCount int       `json:"task_count"`
	Reason    string    `json:"reason,omitempty"`
}

// MarshalJSON encodes the event payload.
func (e BoardUpdated) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardUpdatedJSON{
		EventID:   e.EventID().String(),
		EntryID:   e.EntryID,
		UpdatedAt: e.UpdatedAt,
		TaskCount: e.TaskCount,
		Reason:    e.Reason,
	})
}
