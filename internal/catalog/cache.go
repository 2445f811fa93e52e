package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = time.Hour

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

type cacheKeys interface {
	CatalogVersionKey() string
	CatalogCacheKey(version string, parts ...string) string
}

// CacheBackend is satisfied by the shared redis client.
type CacheBackend interface {
	cacheStore
	cacheKeys
}

// FacetCache memoizes facet reads under the current catalog version. A
// replace bumps the version, orphaning every entry computed before it.
type FacetCache struct {
	backend CacheBackend
	ttl     time.Duration
}

func NewFacetCache(backend CacheBackend, ttl time.Duration) *FacetCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &FacetCache{backend: backend, ttl: ttl}
}

func (c *FacetCache) version(ctx context.Context) (string, error) {
	v, err := c.backend.Get(ctx, c.backend.CatalogVersionKey())
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return v, err
}

func (c *FacetCache) key(ctx context.Context, kind string, categoryIDs []string) (string, error) {
	version, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return c.backend.CatalogCacheKey(version, kind, strings.Join(categoryIDs, ",")), nil
}

// Load decodes a cached value into dest. It reports false on a miss.
func (c *FacetCache) Load(ctx context.Context, kind string, categoryIDs []string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	key, err := c.key(ctx, kind, categoryIDs)
	if err != nil {
		return false, err
	}
	raw, err := c.backend.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *FacetCache) Store(ctx context.Context, kind string, categoryIDs []string, value any) error {
	if c == nil {
		return nil
	}
	key, err := c.key(ctx, kind, categoryIDs)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.backend.Set(ctx, key, string(raw), c.ttl)
}

// Invalidate moves the cache to a fresh catalog version.
func (c *FacetCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	_, err := c.backend.Incr(ctx, c.backend.CatalogVersionKey())
	return err
}
