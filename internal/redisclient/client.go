package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/models"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"
)

const catalogVersionKey = "catalog:version"

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis-backed catalog cache. Cached pages expire
// after ttl even without an explicit invalidation.
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CatalogKey is the cache key of q under a catalog version. Bumping the
// version orphans every page cached before it.
func CatalogKey(version int64, q models.CatalogQuery) string {
	return fmt.Sprintf("catalog:v%d:%s", version, catalog.Values(q).Encode())
}

func (c *Client) version(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, catalogVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read catalog version: %w", err)
	}
	return v, nil
}

// GetCatalog returns the cached page for q and the catalog version it looked
// under. The bool is false on a miss; pass the version to SetCatalog so a page
// built from a read that raced an invalidation is filed under the old version.
func (c *Client) GetCatalog(ctx context.Context, q models.CatalogQuery) (*models.CatalogResult, int64, bool, error) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	raw, err := c.rdb.Get(ctx, CatalogKey(version, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, version, false, nil
	}
	if err != nil {
		return nil, version, false, fmt.Errorf("read cached catalog: %w", err)
	}

	var result models.CatalogResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// Unreadable entries are treated as misses and overwritten.
		return nil, version, false, nil
	}
	return &result, version, true, nil
}

// SetCatalog caches result as the page for q under version.
func (c *Client) SetCatalog(ctx context.Context, version int64, q models.CatalogQuery, result *models.CatalogResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal catalog page: %w", err)
	}
	return c.rdb.Set(ctx, CatalogKey(version, q), raw, c.ttl).Err()
}

// InvalidateCatalog bumps the catalog version so later reads miss.
func (c *Client) InvalidateCatalog(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, catalogVersionKey).Err(); err != nil {
		return fmt.Errorf("bump catalog version: %w", err)
	}
	return nil
}
