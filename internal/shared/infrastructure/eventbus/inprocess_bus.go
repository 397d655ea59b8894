package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/choreboard/internal/shared/domain"
)

// InProcessEventBus delivers events synchronously to consumers registered in
// the same process. Consumer failures are logged and never reach the
// publisher.
type InProcessEventBus struct {
	registry *ConsumerRegistry
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewInProcessEventBus creates a new in-process event bus.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &InProcessEventBus{
		registry: NewConsumerRegistry(logger),
		logger:   logger,
	}
}

// RegisterConsumer registers an event consumer.
func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.registry.Register(consumer)
}

// Publish decodes an envelope and dispatches it to the registered consumers.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(payload, event); err != nil {
		b.logger.Error("failed to unmarshal event payload",
			"routing_key", routingKey,
			"error", err,
		)
		return nil
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	b.dispatch(ctx, event)
	return nil
}

// PublishDomainEvent wraps and dispatches a domain event.
func (b *InProcessEventBus) PublishDomainEvent(ctx context.Context, event domain.DomainEvent) error {
	envelope, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	b.dispatch(ctx, envelope)
	return nil
}

// PublishConsumedEvent dispatches an already decoded event, such as one
// received from a broker.
func (b *InProcessEventBus) PublishConsumedEvent(ctx context.Context, event *ConsumedEvent) error {
	b.dispatch(ctx, event)
	return nil
}

func (b *InProcessEventBus) dispatch(ctx context.Context, event *ConsumedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	err := b.registry.Dispatch(ctx, event)
	duration := time.Since(start)

	if err != nil {
		b.logger.Error("event dispatch failed",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return
	}

	b.logger.Debug("event dispatched",
		"routing_key", event.RoutingKey,
		"event_id", event.EventID,
		"duration_ms", duration.Milliseconds(),
	)
}

// Close is a no-op for the in-process bus.
func (b *InProcessEventBus) Close() error {
	return nil
}

// Registry returns the underlying consumer registry.
func (b *InProcessEventBus) Registry() *ConsumerRegistry {
	return b.registry
}

// Relay is an EventConsumer that hands broker deliveries to an in-process
// bus, so remote and local events reach the same subscribers.
type Relay struct {
	bus        *InProcessEventBus
	eventTypes []string
}

// NewRelay relays eventTypes into bus.
func NewRelay(bus *InProcessEventBus, eventTypes ...string) *Relay {
	return &Relay{bus: bus, eventTypes: eventTypes}
}

// EventTypes implements EventConsumer.
func (r *Relay) EventTypes() []string { return r.eventTypes }

// Handle implements EventConsumer.
func (r *Relay) Handle(ctx context.Context, event *ConsumedEvent) error {
	return r.bus.PublishConsumedEvent(ctx, event)
}
