// Package events connects the board store to the event bus: committed saves
// go out as board.updated envelopes and envelopes from other processes
// invalidate the local board cache.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

// DefaultForwardTimeout bounds each external forward.
const DefaultForwardTimeout = 5 * time.Second

// localBus is the in-process side of the fan-out.
type localBus interface {
	PublishConsumedEvent(ctx context.Context, event *eventbus.ConsumedEvent) error
}

// BoardNotifier implements application.Notifier. Every event is delivered
// to local subscribers first and then forwarded to each external publisher.
// Forward failures are logged and counted; they never fail the save.
type BoardNotifier struct {
	instanceID string
	bus        localBus
	forwarders []eventbus.Publisher
	timeout    time.Duration
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NotifierOption customises a BoardNotifier.
type NotifierOption func(*BoardNotifier)

// WithForwarders adds external publishers.
func WithForwarders(forwarders ...eventbus.Publisher) NotifierOption {
	return func(n *BoardNotifier) { n.forwarders = append(n.forwarders, forwarders...) }
}

// WithForwardTimeout overrides DefaultForwardTimeout.
func WithForwardTimeout(d time.Duration) NotifierOption {
	return func(n *BoardNotifier) { n.timeout = d }
}

// WithMetrics records published and dropped events.
func WithMetrics(metrics observability.Metrics) NotifierOption {
	return func(n *BoardNotifier) { n.metrics = metrics }
}

// NewBoardNotifier creates a notifier stamping events with instanceID.
// bus may be nil when nothing in process listens.
func NewBoardNotifier(instanceID string, bus localBus, logger *slog.Logger, opts ...NotifierOption) *BoardNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &BoardNotifier{
		instanceID: instanceID,
		bus:        bus,
		timeout:    DefaultForwardTimeout,
		metrics:    observability.NoopMetrics{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// InstanceID identifies this process in event metadata.
func (n *BoardNotifier) InstanceID() string { return n.instanceID }

// Notify publishes event.
func (n *BoardNotifier) Notify(ctx context.Context, event *domain.BoardUpdated) {
	event.SetMetadata(sharedMetadata(ctx, n.instanceID))

	envelope, err := eventbus.NewEnvelope(event)
	if err != nil {
		n.logger.Error("failed to build event envelope",
			"entry_id", event.EntryID,
			"error", err,
		)
		n.metrics.Counter(observability.MetricEventsDropped, 1, observability.T("target", "local"))
		return
	}

	if n.bus != nil {
		if err := n.bus.PublishConsumedEvent(ctx, envelope); err != nil {
			n.logger.Warn("local event delivery failed", "entry_id", event.EntryID, "error", err)
		}
	}

	if len(n.forwarders) == 0 {
		return
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		n.logger.Error("failed to encode event envelope", "entry_id", event.EntryID, "error", err)
		return
	}
	for _, forwarder := range n.forwarders {
		n.forward(ctx, forwarder, envelope.RoutingKey, payload, event.EntryID)
	}
}

func (n *BoardNotifier) forward(ctx context.Context, forwarder eventbus.Publisher, routingKey string, payload []byte, entryID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	target := forwarderName(forwarder)
	if err := forwarder.Publish(ctx, routingKey, payload); err != nil {
		n.metrics.Counter(observability.MetricEventsDropped, 1, observability.T("target", target))
		n.logger.Warn("event forward failed",
			"forwarder", target,
			"entry_id", entryID,
			"error", err,
		)
		return
	}
	n.metrics.Counter(observability.MetricEventsPublished, 1, observability.T("target", target))
}

func forwarderName(p eventbus.Publisher) string {
	if named, ok := p.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "external"
}
