// Package cli wires configuration into a ready lattice client for the command line.
package cli

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/config"
	httpAdapter "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/adapters/redis"
	"github.com/aretw0/lattice/pkg/encoder"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/transport"
	"github.com/prometheus/client_golang/prometheus"
)

// Stack is a configured client together with what it was built from.
type Stack struct {
	Client    *lattice.Client
	Transport ports.Transport
	Cache     ports.Cache
	// Registry holds the client metrics when enabled, nil otherwise.
	Registry *prometheus.Registry

	closers []func() error
}

// Close releases connections opened by Build.
func (s *Stack) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Build creates the transport chain and client described by cfg.
// Without an endpoint the offline fake transport is used.
func Build(cfg config.Config, logger *slog.Logger) (*Stack, error) {
	s := &Stack{}

	// 1. Base transport
	var base ports.Transport
	if cfg.Endpoint == "" {
		logger.Warn("no endpoint configured, using the offline fake transport")
		base = memory.NewTransport()
	} else {
		base = httpAdapter.NewClient(cfg.Endpoint,
			httpAdapter.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			httpAdapter.WithUserAgent("lattice/"+strings.TrimSpace(lattice.Version)))
	}

	// 2. Metrics
	var metrics *observability.Metrics
	if cfg.Metrics {
		s.Registry = prometheus.NewRegistry()
		m, err := observability.NewMetrics(s.Registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		metrics = m
	}

	// 3. Cache
	mws := []transport.Middleware{transport.NewLoggingMiddleware(logger)}
	if metrics != nil {
		mws = append(mws, transport.NewMetricsMiddleware(metrics))
	}
	caching, err := s.buildCache(cfg.Cache, metrics, logger)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	if caching != nil {
		mws = append(mws, caching)
	}
	s.Transport = transport.Chain(base, mws...)

	// 4. Client
	var encOpts []encoder.Option
	if cfg.StrictVariables {
		encOpts = append(encOpts, encoder.WithStrictVariables())
	}
	s.Client, err = lattice.New(
		lattice.WithTransport(s.Transport),
		lattice.WithEncoder(encoder.New(encOpts...)),
		lattice.WithLogger(logger),
	)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Stack) buildCache(cfg config.CacheConfig, metrics *observability.Metrics, logger *slog.Logger) (transport.Middleware, error) {
	cc := transport.CacheConfig{TTL: cfg.TTL, Metrics: metrics, Logger: logger}

	switch cfg.Backend {
	case config.CacheNone, "":
		return nil, nil
	case config.CacheMemory:
		cc.Cache = memory.NewCache()
	case config.CacheRedis:
		rc := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.TTL))
		s.closers = append(s.closers, rc.Close)
		cc.Cache = rc
		if cfg.Lock {
			cc.Locker = redis.NewLocker(rc.Client(), cfg.Redis.Prefix)
		}
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid cache encryption key: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("invalid cache encryption key: got %d bytes, want 32", len(key))
		}
		cc.Cache = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(cc.Cache)
	}

	s.Cache = cc.Cache
	return transport.NewCachingMiddleware(cc), nil
}
