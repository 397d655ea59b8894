package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/internal/board/infrastructure/persistence"
	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/choreboard/pkg/config"
	"github.com/felixgeelhaar/choreboard/pkg/observability"

	// Register the connection drivers with the database factory.
	_ "github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/choreboard/internal/shared/infrastructure/database/sqlite"
)

// BoardStorage is the opened board persistence stack.
type BoardStorage struct {
	Repo domain.Repository

	// Conn is nil when boards live in Azure Table storage.
	Conn  database.Connection
	Redis *redis.Client
}

// Close releases the connections held by the storage.
func (s *BoardStorage) Close() error {
	var errs []error
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	if s.Conn != nil {
		errs = append(errs, s.Conn.Close())
	}
	return errors.Join(errs...)
}

// RepositoryFactory opens the board repository selected by configuration.
type RepositoryFactory struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewRepositoryFactory creates a factory for cfg.
func NewRepositoryFactory(cfg *config.Config, logger *slog.Logger, metrics observability.Metrics) *RepositoryFactory {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &RepositoryFactory{cfg: cfg, logger: logger, metrics: metrics}
}

// Open connects the backing store and, when REDIS_URL is set, puts the
// Redis cache in front of it.
func (f *RepositoryFactory) Open(ctx context.Context) (*BoardStorage, error) {
	storage := &BoardStorage{}

	switch f.cfg.BoardStorage {
	case config.StorageAzure:
		repo, err := persistence.NewAzureTableBoardRepository(ctx, f.cfg.AzureTablesConnectionString, f.cfg.AzureBoardTable)
		if err != nil {
			return nil, fmt.Errorf("failed to open Azure table storage: %w", err)
		}
		f.logger.Info("board storage: Azure table", "table", f.cfg.AzureBoardTable)
		storage.Repo = repo
	default:
		conn, err := f.openSQL(ctx)
		if err != nil {
			return nil, err
		}
		repo, err := persistence.NewSQLBoardRepository(conn)
		if err != nil {
			conn.Close()
			return nil, err
		}
		storage.Conn = conn
		storage.Repo = repo
	}

	client, err := f.openRedis(ctx)
	if err != nil {
		storage.Close()
		return nil, err
	}
	if client != nil {
		storage.Redis = client
		storage.Repo = persistence.NewCachedRepository(storage.Repo, client, f.cfg.BoardCacheTTL, f.metrics)
	}
	return storage, nil
}

func (f *RepositoryFactory) openSQL(ctx context.Context) (database.Connection, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		URL:        f.cfg.DatabaseURL,
		SQLitePath: f.cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	f.logger.Info("connected to database", "driver", conn.Driver())
	return conn, nil
}

// openRedis returns nil when no cache is configured. Outside development an
// unreachable Redis is fatal; in development boards are read uncached.
func (f *RepositoryFactory) openRedis(ctx context.Context) (*redis.Client, error) {
	if f.cfg.RedisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(f.cfg.RedisURL)
	if err != nil {
		if f.cfg.IsDevelopment() {
			f.logger.Warn("invalid Redis URL, board cache disabled", "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		if f.cfg.IsDevelopment() {
			f.logger.Warn("Redis not available, board cache disabled", "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	f.logger.Info("connected to Redis", "ttl", f.cfg.BoardCacheTTL)
	return client, nil
}
