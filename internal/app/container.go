// Package app is the composition root: it turns configuration into a wired
// registry of household stores, the event fan-out and the job scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/choreboard/internal/board/application"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/internal/board/infrastructure/events"
	"github.com/felixgeelhaar/choreboard/internal/scheduling"
	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/choreboard/pkg/config"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *observability.InMemoryMetrics
	InstanceID string

	Storage    *BoardStorage
	Bus        *eventbus.InProcessEventBus
	Forwarders []*eventbus.BreakerPublisher
	Notifier   *events.BoardNotifier
	Registry   *application.Registry
	Health     *observability.HealthRegistry
	Scheduler  *scheduling.Scheduler

	schedules map[string]application.Schedule
	consumer  *eventbus.RabbitMQConsumer
	rabbit    *eventbus.RabbitMQPublisher
	clock     func() time.Time
}

// Option customises a Container.
type Option func(*Container)

// WithClock replaces time.Now in every store.
func WithClock(now func() time.Time) Option {
	return func(c *Container) { c.clock = now }
}

// WithStorage uses an already opened storage instead of the configured one.
func WithStorage(storage *BoardStorage) Option {
	return func(c *Container) { c.Storage = storage }
}

// NewContainer creates a new dependency injection container.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    observability.NewInMemoryMetrics(),
		InstanceID: uuid.NewString(),
		Health:     observability.NewHealthRegistry(),
		schedules:  make(map[string]application.Schedule, len(cfg.Households)),
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.Storage == nil {
		storage, err := NewRepositoryFactory(cfg, logger, c.Metrics).Open(ctx)
		if err != nil {
			return nil, err
		}
		c.Storage = storage
	}

	c.Bus = eventbus.NewInProcessEventBus(logger)
	c.initForwarders(ctx)

	var forwarders []eventbus.Publisher
	for _, f := range c.Forwarders {
		forwarders = append(forwarders, f)
	}
	c.Notifier = events.NewBoardNotifier(c.InstanceID, c.Bus, logger,
		events.WithForwarders(forwarders...),
		events.WithMetrics(c.Metrics),
	)

	registry, err := c.buildRegistry()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Registry = registry
	c.Bus.RegisterConsumer(events.NewStoreInvalidator(c.InstanceID, registry, logger))

	c.registerHealthChecks()

	c.Scheduler = scheduling.NewScheduler(logger)
	if err := application.RegisterJobs(c.Scheduler, c.Registry, c.schedules, logger); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	logger.Info("container ready",
		"instance_id", c.InstanceID,
		"households", len(cfg.Households),
		"forwarders", len(c.Forwarders),
	)
	return c, nil
}

// initForwarders connects the optional external event targets. A target
// that cannot be reached is logged and skipped; saves never depend on it.
func (c *Container) initForwarders(ctx context.Context) {
	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err != nil {
			c.Logger.Warn("RabbitMQ not available, board events stay local", "error", err)
		} else {
			c.rabbit = publisher
			c.Forwarders = append(c.Forwarders, eventbus.NewBreakerPublisher(publisher, eventbus.DefaultBreakerConfig("rabbitmq"), c.Logger))
		}
	}
	if c.Config.AzureQueueConnectionString != "" {
		publisher, err := eventbus.NewAzureQueuePublisher(ctx, c.Config.AzureQueueConnectionString, c.Config.AzureBoardQueue, c.Logger)
		if err != nil {
			c.Logger.Warn("Azure queue not available, board events not enqueued", "error", err)
		} else {
			c.Forwarders = append(c.Forwarders, eventbus.NewBreakerPublisher(publisher, eventbus.DefaultBreakerConfig("azure-queue"), c.Logger))
		}
	}
}

func (c *Container) buildRegistry() (*application.Registry, error) {
	registry := application.NewRegistry()
	for _, h := range c.Config.Households {
		loc, err := h.Location()
		if err != nil {
			return nil, fmt.Errorf("household %s: %w", h.ID, err)
		}
		store := application.NewStore(application.StoreConfig{
			EntryID:  h.ID,
			Title:    h.Name,
			Members:  domain.MembersFromNames(h.Members),
			Chores:   h.Chores,
			Location: loc,
		}, c.Storage.Repo, c.Notifier, c.Logger,
			application.WithClock(c.clock),
			application.WithMetrics(c.Metrics),
		)
		if err := registry.Register(store); err != nil {
			return nil, err
		}
		c.schedules[h.ID] = application.Schedule{
			RefreshWeekday: h.RefreshWeekday,
			RefreshHour:    h.RefreshHour,
			RefreshMinute:  h.RefreshMinute,
			CleanupHour:    h.CleanupHour,
			CleanupMinute:  h.CleanupMinute,
		}
	}
	return registry, nil
}

func (c *Container) registerHealthChecks() {
	if c.Storage.Conn != nil {
		c.Health.Register("database", observability.DatabaseHealthChecker(c.Storage.Conn.Ping))
	}
	if c.Storage.Redis != nil {
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return c.Storage.Redis.Ping(ctx).Err()
		}))
	}
	if c.rabbit != nil {
		c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(c.rabbit.Ping))
	}
}

// Schedules returns the job times of every household keyed by entry id.
func (c *Container) Schedules() map[string]application.Schedule {
	out := make(map[string]application.Schedule, len(c.schedules))
	for id, s := range c.schedules {
		out[id] = s
	}
	return out
}

// StartEventConsumer subscribes to board events from other processes and
// relays them into the local bus until ctx is done. It is a no-op without
// RABBITMQ_URL.
func (c *Container) StartEventConsumer(ctx context.Context) error {
	if c.Config.RabbitMQURL == "" {
		return nil
	}
	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:    c.Config.RabbitMQURL,
		Logger: c.Logger,
	}, eventbus.NewConsumerRegistry(c.Logger))
	if err != nil {
		return fmt.Errorf("failed to start event consumer: %w", err)
	}
	consumer.RegisterConsumer(eventbus.NewRelay(c.Bus, domain.RoutingKeyBoardUpdated))
	c.consumer = consumer

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.Logger.Error("event consumer stopped", "error", err)
		}
	}()
	return nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.consumer != nil {
		if err := c.consumer.Close(); err != nil {
			c.Logger.Warn("error closing event consumer", "error", err)
		}
	}

	for _, f := range c.Forwarders {
		if err := f.Close(); err != nil {
			c.Logger.Warn("error closing event forwarder", "forwarder", f.Name(), "error", err)
		}
	}

	if c.Bus != nil {
		_ = c.Bus.Close()
	}

	if c.Storage != nil {
		if err := c.Storage.Close(); err != nil {
			c.Logger.Warn("error closing board storage", "error", err)
		} else {
			c.Logger.Info("board storage closed")
		}
	}
}
