package ports

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Cache.Get when the key holds no entry.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores evaluation responses.
type Cache interface {
	// Get returns the response stored under key, or ErrCacheMiss.
	Get(ctx context.Context, key string) (*Response, error)

	// Set stores resp under key. A ttl of zero uses the implementation default.
	Set(ctx context.Context, key string, resp *Response, ttl time.Duration) error

	// Delete removes the entry under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
