package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "groupdir:metadata:"

// Cache stores live resolution results keyed by link
type Cache interface {
	Get(ctx context.Context, link string) (Metadata, bool, error)
	Set(ctx context.Context, link string, md Metadata) error
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(context.Context, string) (Metadata, bool, error) { return Metadata{}, false, nil }
func (NopCache) Set(context.Context, string, Metadata) error        { return nil }

type memEntry struct {
	md      Metadata
	expires time.Time
}

// MemoryCache is a process-local TTL map
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, link string) (Metadata, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[link]
	if !ok {
		return Metadata{}, false, nil
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, link)
		return Metadata{}, false, nil
	}
	return e.md, true, nil
}

func (c *MemoryCache) Set(_ context.Context, link string, md Metadata) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.entries[link] = memEntry{md: md, expires: now.Add(c.ttl)}
	return nil
}

// RedisCache keeps results as JSON strings with a TTL
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, link string) (Metadata, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+link).Bytes()
	if errors.Is(err, redis.Nil) {
		return Metadata{}, false, nil
	}
	if err != nil {
		return Metadata{}, false, fmt.Errorf("failed to read cached metadata: %w", err)
	}
	var md Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return Metadata{}, false, fmt.Errorf("failed to decode cached metadata: %w", err)
	}
	return md, true, nil
}

func (c *RedisCache) Set(ctx context.Context, link string, md Metadata) error {
	raw, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := c.client.Set(ctx, redisKeyPrefix+link, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache metadata: %w", err)
	}
	return nil
}

// Close releases the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
