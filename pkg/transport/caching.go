package transport

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// Cache lookup results recorded in observability.Metrics.CacheLookups.
const (
	LookupHit    = "hit"
	LookupMiss   = "miss"
	LookupShared = "shared"
)

// DefaultLockTTL bounds how long a replica may hold the fill lock of one request.
const DefaultLockTTL = 30 * time.Second

// DefaultFillTimeout bounds a collapsed fill once it no longer follows any caller's context.
const DefaultFillTimeout = 2 * time.Minute

// CacheConfig configures the caching middleware.
type CacheConfig struct {
	// Cache stores responses. Required.
	Cache ports.Cache

	// TTL of stored responses. Zero uses the cache default.
	TTL time.Duration

	// Locker, when set, serializes cache fills across replicas.
	Locker  ports.DistributedLocker
	LockTTL time.Duration

	// FillTimeout bounds one call to the next transport shared by collapsed callers.
	FillTimeout time.Duration

	// Ops restricts caching to the listed operations. Empty caches every operation.
	Ops []ports.Op

	Metrics *observability.Metrics
	Logger  *slog.Logger
}

type cachingMiddleware struct {
	next   ports.Transport
	config CacheConfig
	group  singleflight.Group
}

// NewCachingMiddleware answers repeated requests from a cache. Concurrent identical
// requests inside one process are collapsed into a single call to the next transport.
// Cache failures are logged and never fail a request.
func NewCachingMiddleware(config CacheConfig) Middleware {
	if config.Cache == nil {
		panic("caching middleware requires a cache")
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultLockTTL
	}
	if config.FillTimeout <= 0 {
		config.FillTimeout = DefaultFillTimeout
	}
	if config.Logger == nil {
		config.Logger = logging.NewNop()
	}
	return func(next ports.Transport) ports.Transport {
		return &cachingMiddleware{next: next, config: config}
	}
}

func (m *cachingMiddleware) Send(ctx context.Context, req *ports.Request) (*ports.Response, error) {
	if len(m.config.Ops) > 0 && !slices.Contains(m.config.Ops, req.Op) {
		return m.next.Send(ctx, req)
	}

	key, err := RequestKey(req)
	if err != nil {
		return nil, err
	}

	if resp, ok := m.lookup(ctx, key); ok {
		m.record(LookupHit)
		return resp, nil
	}

	// The flight outlives the caller that started it: every caller waits on its own
	// context, so a cancelled leader does not fail the others.
	ch := m.group.DoChan(key, func() (any, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.FillTimeout)
		defer cancel()
		return m.fill(fillCtx, key, req)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			m.record(LookupShared)
		} else {
			m.record(LookupMiss)
		}
		return clone(res.Val.(*ports.Response)), nil
	}
}

func (m *cachingMiddleware) fill(ctx context.Context, key string, req *ports.Request) (*ports.Response, error) {
	if m.config.Locker != nil {
		if unlock, err := m.config.Locker.Lock(ctx, key, m.config.LockTTL); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			m.config.Logger.Warn("failed to acquire cache lock, filling unlocked", "key", key, "error", err)
		} else {
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					m.config.Logger.Warn("failed to release cache lock", "key", key, "error", err)
				}
			}()

			// Another replica may have filled the entry while we waited.
			if resp, ok := m.lookup(ctx, key); ok {
				return resp, nil
			}
		}
	}

	resp, err := m.next.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := m.config.Cache.Set(ctx, key, resp, m.config.TTL); err != nil {
		m.config.Logger.Warn("failed to store response", "key", key, "error", err)
	}
	return resp, nil
}

func (m *cachingMiddleware) lookup(ctx context.Context, key string) (*ports.Response, bool) {
	resp, err := m.config.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			m.config.Logger.Warn("cache lookup failed", "key", key, "error", err)
		}
		return nil, false
	}
	return resp, true
}

func (m *cachingMiddleware) record(result string) {
	if m.config.Metrics != nil {
		m.config.Metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func clone(resp *ports.Response) *ports.Response {
	out := *resp
	out.Result = slices.Clone(resp.Result)
	return &out
}
