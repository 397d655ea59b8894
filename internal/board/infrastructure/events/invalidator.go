package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/eventbus"
)

// StoreInvalidator drops the cached board of an entry when another process
// reports a save for it. Events this process published are ignored.
type StoreInvalidator struct {
	instanceID string
	registry   *application.Registry
	logger     *slog.Logger
}

// NewStoreInvalidator creates the consumer.
func NewStoreInvalidator(instanceID string, registry *application.Registry, logger *slog.Logger) *StoreInvalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreInvalidator{instanceID: instanceID, registry: registry, logger: logger}
}

// EventTypes implements eventbus.EventConsumer.
func (c *StoreInvalidator) EventTypes() []string {
	return []string{domain.RoutingKeyBoardUpdated}
}

// Handle implements eventbus.EventConsumer.
func (c *StoreInvalidator) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	if event.Metadata.Source == c.instanceID {
		return nil
	}
	store, err := c.registry.Get(event.AggregateID)
	if errors.Is(err, domain.ErrEntryNotFound) {
		c.logger.Debug("ignoring update for unknown entry", "entry_id", event.AggregateID)
		return nil
	}
	if err != nil {
		return err
	}
	store.Invalidate()
	return nil
}
