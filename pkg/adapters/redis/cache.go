package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the adapter.
const DefaultPrefix = "lattice:cache:"

// farFuture is the index score of entries that never expire (2100-01-01).
const farFuture = 4102444800

// Cache implements ports.Cache using Redis.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Cache)

// WithTTL sets the expiration applied when Set receives a zero ttl.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		c.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		c.prefix = prefix
	}
}

// New creates a new Redis cache with options.
func New(address, password string, db int, opts ...Option) *Cache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (c *Cache) Client() *backend.Client {
	return c.client
}

func (c *Cache) key(k string) string {
	return c.prefix + k
}

func (c *Cache) indexKey() string {
	return c.prefix + "index"
}

// Set stores the response as JSON and records the key in the index.
func (c *Cache) Set(ctx context.Context, key string, resp *ports.Response, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	score := float64(time.Now().Add(ttl).Unix())
	if ttl == 0 {
		score = farFuture
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, c.key(key), data, ttl)
	pipe.ZAdd(ctx, c.indexKey(), backend.Z{Score: score, Member: key})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Get returns the response stored under key.
func (c *Cache) Get(ctx context.Context, key string) (*ports.Response, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ports.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var resp ports.Response
	if err := json.Unmarshal(val, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}

// Delete removes the entry and its index member.
func (c *Cache) Delete(ctx context.Context, key string) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, c.key(key))
	pipe.ZRem(ctx, c.indexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

// Keys returns the live cache keys. Expired members are pruned from the index lazily.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := c.client.ZRemRangeByScore(ctx, c.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired entries: %w", err)
	}

	keys, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return keys, nil
}

// Purge deletes every indexed entry.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	keys, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list entries: %w", err)
	}

	pipe := c.client.Pipeline()
	for _, k := range keys {
		pipe.Del(ctx, c.key(k))
	}
	pipe.Del(ctx, c.indexKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to purge: %w", err)
	}
	return len(keys), nil
}

// Close closes the redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}
