// Package config loads the CLI configuration. Layers apply in order: defaults, the
// YAML or JSON file, LATTICE_* environment variables, then explicitly set flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "lattice.yaml"

// EnvPrefix prefixes every environment override, e.g. LATTICE_CACHE_REDIS_ADDR.
const EnvPrefix = "LATTICE_"

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the CLI configuration.
type Config struct {
	// Endpoint is the base URL of the evaluation service. Empty uses the offline fake.
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
	LogLevel        string        `mapstructure:"log_level"`
	StrictVariables bool          `mapstructure:"strict_variables"`
	Metrics         bool          `mapstructure:"metrics"`

	Cache CacheConfig `mapstructure:"cache"`
	Serve ServeConfig `mapstructure:"serve"`
}

// CacheConfig selects and configures the response cache.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	// Lock serializes cache fills across replicas (redis only).
	Lock bool `mapstructure:"lock"`
	// EncryptionKey is a base64 AES-256 key. Empty stores responses in clear.
	EncryptionKey string      `mapstructure:"encryption_key"`
	Redis         RedisConfig `mapstructure:"redis"`
}

// RedisConfig addresses the redis cache backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// ServeConfig configures `lattice serve`.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Timeout:  60 * time.Second,
		LogLevel: "info",
		Cache: CacheConfig{
			Backend: CacheNone,
			TTL:     10 * time.Minute,
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "lattice:cache:"},
		},
		Serve: ServeConfig{Addr: ":8080"},
	}
}

// defaults flattens Default() into koanf keys. Every settable key must appear here:
// environment variables are resolved against this key set.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"endpoint":             d.Endpoint,
		"timeout":              d.Timeout,
		"log_level":            d.LogLevel,
		"strict_variables":     d.StrictVariables,
		"metrics":              d.Metrics,
		"cache.backend":        d.Cache.Backend,
		"cache.ttl":            d.Cache.TTL,
		"cache.lock":           d.Cache.Lock,
		"cache.encryption_key": d.Cache.EncryptionKey,
		"cache.redis.addr":     d.Cache.Redis.Addr,
		"cache.redis.password": d.Cache.Redis.Password,
		"cache.redis.db":       d.Cache.Redis.DB,
		"cache.redis.prefix":   d.Cache.Redis.Prefix,
		"serve.addr":           d.Serve.Addr,
	}
}

// flagKeys maps CLI flag names onto configuration keys. Other flags are ignored.
var flagKeys = map[string]string{
	"endpoint":  "endpoint",
	"log-level": "log_level",
	"addr":      "serve.addr",
}

// Load layers defaults, the file at path, the environment and the changed flags in
// flags (nil skips that layer), then decodes and validates the result. A missing file
// is not an error when path is DefaultFile or empty.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	defs := defaults()
	if err := k.Load(confmap.Provider(defs, "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != "" && path != DefaultFile
	if path == "" {
		path = DefaultFile
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		// The YAML parser reads JSON documents as well.
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	// LATTICE_CACHE_REDIS_ADDR -> cache.redis.addr. Underscores are ambiguous
	// (encryption_key), so names resolve against the known keys.
	envKeys := make(map[string]string, len(defs))
	for key := range defs {
		envKeys[strings.ReplaceAll(key, ".", "_")] = key
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return envKeys[strings.ToLower(strings.TrimPrefix(s, EnvPrefix))]
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "mapstructure",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			TagName:          "mapstructure",
			WeaklyTypedInput: true,
			ErrorUnused:      true,
			DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		},
	}); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that decoding cannot.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("invalid config: unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Lock && c.Cache.Backend != CacheRedis {
		return fmt.Errorf("invalid config: cache.lock requires the redis backend")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid config: negative timeout")
	}
	return nil
}
