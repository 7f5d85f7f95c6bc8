// Package cache provides an optional Redis-backed key/value cache with lifecycle coordination.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/one2ten/stetho-agent/pkg/lifecycle"
)

// System stores short-lived values keyed by string.
// When the cache is disabled or unreachable, Get always misses and Set is a no-op.
type System interface {
	// Get returns the value for key. The boolean is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Enabled reports whether values are actually stored.
	Enabled() bool
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type cache struct {
	client      *redis.Client
	prefix      string
	connTimeout time.Duration
	logger      *slog.Logger
	degraded    atomic.Bool
}

// New creates a cache system. An unconfigured address yields a disabled cache.
// The connection is verified when Start runs; a failed ping degrades the
// cache to always-miss instead of failing startup.
func New(cfg *Config, logger *slog.Logger) System {
	logger = logger.With("system", "cache")

	if !cfg.Enabled() {
		return &disabled{logger: logger}
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.ConnTimeoutDuration(),
	})

	return &cache{
		client:      client,
		prefix:      cfg.Prefix,
		connTimeout: cfg.ConnTimeoutDuration(),
		logger:      logger,
	}
}

func (c *cache) Enabled() bool {
	return !c.degraded.Load()
}

func (c *cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c.degraded.Load() {
		return nil, false, nil
	}

	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.degraded.Load() {
		return nil
	}

	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *cache) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting cache connection")

	// The cache is optional, so a failed ping degrades it without failing
	// readiness.
	lc.OnStartup("cache", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, c.connTimeout)
		defer cancel()

		if err := c.client.Ping(pingCtx).Err(); err != nil {
			c.logger.Warn("cache ping failed, caching disabled", "error", err)
			c.degraded.Store(true)
			return nil
		}

		c.logger.Info("cache connection established")
		return nil
	})

	lc.OnShutdown("cache", func() {
		c.logger.Info("closing cache connection")

		if err := c.client.Close(); err != nil {
			c.logger.Error("cache close failed", "error", err)
			return
		}

		c.logger.Info("cache connection closed")
	})

	return nil
}

type disabled struct {
	logger *slog.Logger
}

func (d *disabled) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (d *disabled) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (d *disabled) Enabled() bool { return false }

func (d *disabled) Start(*lifecycle.Coordinator) error {
	d.logger.Info("cache not configured, running without cache")
	return nil
}
