package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/choreboard/internal/board/domain"
	"github.com/felixgeelhaar/choreboard/pkg/observability"
)

// CachedRepository keeps the latest document of every household in Redis in
// front of a slower repository. Reads fill the cache, saves write through.
// Redis failures fall back to the backing repository.
type CachedRepository struct {
	base    domain.Repository
	redis   *redis.Client
	ttl     time.Duration
	metrics observability.Metrics
}

// NewCachedRepository wraps base. A nil client disables caching.
func NewCachedRepository(base domain.Repository, client *redis.Client, ttl time.Duration, metrics observability.Metrics) *CachedRepository {
	if base == nil {
		panic("persistence.NewCachedRepository: base repository is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &CachedRepository{base: base, redis: client, ttl: ttl, metrics: metrics}
}

// Load serves the document from Redis, filling it from the backing
// repository on a miss.
func (c *CachedRepository) Load(ctx context.Context, entryID string) (*domain.Document, error) {
	if doc, ok := c.loadFromCache(ctx, entryID); ok {
		c.metrics.Counter(observability.MetricCacheHits, 1, observability.T("entry_id", entryID))
		return doc, nil
	}
	c.metrics.Counter(observability.MetricCacheMisses, 1, observability.T("entry_id", entryID))

	doc, err := c.base.Load(ctx, entryID)
	if err != nil || doc == nil {
		return doc, err
	}
	c.store(ctx, entryID, cachedDocument{Version: doc.Version, Data: doc.Board, Revision: doc.Revision})
	return doc, nil
}

// Save persists to the backing repository and refreshes the cache.
func (c *CachedRepository) Save(ctx context.Context, entryID string, b domain.Board) error {
	if err := c.base.Save(ctx, entryID, b); err != nil {
		c.evict(ctx, entryID)
		return err
	}
	c.store(ctx, entryID, cachedDocument{Version: domain.CurrentSchemaVersion, Data: b.ToRaw(), Revision: domain.RevisionOf(b)})
	return nil
}

// SaveIfRevision forwards to the backing repository when it is conditional
// and saves unconditionally otherwise. A failed save evicts the cached
// document so the next Load reads the backing repository.
func (c *CachedRepository) SaveIfRevision(ctx context.Context, entryID string, b domain.Board, expected string) (string, error) {
	base, ok := c.base.(domain.ConditionalRepository)
	if !ok {
		if err := c.Save(ctx, entryID, b); err != nil {
			return "", err
		}
		return domain.RevisionOf(b), nil
	}

	revision, err := base.SaveIfRevision(ctx, entryID, b, expected)
	if err != nil {
		c.evict(ctx, entryID)
		return "", err
	}
	c.store(ctx, entryID, cachedDocument{Version: domain.CurrentSchemaVersion, Data: b.ToRaw(), Revision: revision})
	return revision, nil
}

// Ping checks Redis connectivity.
func (c *CachedRepository) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

type cachedDocument struct {
	Version  int             `json:"version"`
	Data     domain.RawBoard `json:"data"`
	Revision string          `json:"revision,omitempty"`
}

func (c *CachedRepository) loadFromCache(ctx context.Context, entryID string) (*domain.Document, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, boardCacheKey(entryID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			_ = c.redis.Del(ctx, boardCacheKey(entryID)).Err()
		}
		return nil, false
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		_ = c.redis.Del(ctx, boardCacheKey(entryID)).Err()
		return nil, false
	}
	var meta struct {
		Revision string `json:"revision"`
	}
	if json.Unmarshal(data, &meta) == nil {
		doc.Revision = meta.Revision
	}
	return doc, true
}

func (c *CachedRepository) store(ctx context.Context, entryID string, doc cachedDocument) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(doc)
	if err != nil {
		c.evict(ctx, entryID)
		return
	}
	if err := c.redis.Set(ctx, boardCacheKey(entryID), data, c.ttl).Err(); err != nil {
		c.evict(ctx, entryID)
	}
}

func (c *CachedRepository) evict(ctx context.Context, entryID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, boardCacheKey(entryID)).Result()
}

func boardCacheKey(entryID string) string {
	return "choreboard:board:" + entryID
}
