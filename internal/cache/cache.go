// Package cache stores encoded calculation results keyed by their inputs.
// Results are derived data: a miss only costs a recomputation.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/saas-metrics/pkg/constants"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a byte-oriented key/value store with a fixed TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config selects and configures a cache backend.
type Config struct {
	Backend  string `yaml:"backend"` // none, memory, redis
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
	Size     int    `yaml:"size"` // memory backend entry limit
}

// TTLDuration parses TTL, falling back to the default when it is empty.
func (c Config) TTLDuration() (time.Duration, error) {
	if c.TTL == "" {
		return constants.DefaultCacheTTLSeconds * time.Second, nil
	}
	ttl, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache ttl %q: %w", c.TTL, err)
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("cache ttl must be positive, got %s", c.TTL)
	}
	return ttl, nil
}

// MaxEntries returns the memory backend entry limit, falling back to the
// default when Size is zero.
func (c Config) MaxEntries() (int, error) {
	if c.Size < 0 {
		return 0, fmt.Errorf("cache size must not be negative, got %d", c.Size)
	}
	if c.Size == 0 {
		return constants.DefaultCacheSize, nil
	}
	return c.Size, nil
}

// New builds the backend named by cfg. Redis connectivity is checked with a
// ping so a bad address fails at startup.
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case constants.CacheBackendNone, "":
		return Nop{}, nil
	}

	ttl, err := cfg.TTLDuration()
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case constants.CacheBackendMemory:
		size, err := cfg.MaxEntries()
		if err != nil {
			return nil, err
		}
		return NewMemory(ttl, size), nil
	case constants.CacheBackendRedis:
		if cfg.Address == "" {
			return nil, errors.New("redis cache requires an address")
		}
		r := NewRedis(cfg.Address, cfg.Password, cfg.DB, ttl)
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unsupported cache backend %q", cfg.Backend)
}

// Nop never stores anything.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set discards the value.
func (Nop) Set(context.Context, string, []byte) error { return nil }

// Close is a no-op.
func (Nop) Close() error { return nil }
