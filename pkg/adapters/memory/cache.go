package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/lattice/pkg/ports"
)

// DefaultTTL applies when Set is called with a zero ttl.
const DefaultTTL = 10 * time.Minute

type entry struct {
	resp    ports.Response
	expires time.Time
}

// Cache implements ports.Cache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]entry
	mu   sync.RWMutex
	now  func() time.Time
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get returns a copy of the entry under key.
func (c *Cache) Get(ctx context.Context, key string) (*ports.Response, error) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expires) {
		return nil, ports.ErrCacheMiss
	}

	// Create a copy on read so callers can't mutate the cached entry.
	ret := e.resp
	ret.Result = slices.Clone(e.resp.Result)
	return &ret, nil
}

// Set stores a copy of resp.
func (c *Cache) Set(ctx context.Context, key string, resp *ports.Response, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	copied := *resp
	copied.Result = slices.Clone(resp.Result)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry{resp: copied, expires: c.now().Add(ttl)}
	return nil
}

// Delete removes the entry.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
