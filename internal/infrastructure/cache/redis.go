// Package cache holds the redis-backed event configuration cache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
)

const keyPrefix = "eventconfig:"

// EventConfigCache stores resolved event configurations per tenant for a fixed TTL.
// Errors are logged and reported as misses so callers fall back to the remote lookup.
type EventConfigCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient opens a pooled redis client.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     10,
	})
}

// New wraps rdb. A non-positive ttl falls back to 30 seconds.
func New(rdb *redis.Client, ttl time.Duration) *EventConfigCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &EventConfigCache{rdb: rdb, ttl: ttl}
}

// Ping checks connectivity.
func (c *EventConfigCache) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func key(tenant, name string) string {
	return keyPrefix + tenant + ":" + name
}

// Get returns the cached configuration, if any.
func (c *EventConfigCache) Get(ctx context.Context, tenant, name string) (*domain.EventConfig, bool) {
	val, err := c.rdb.Get(ctx, key(tenant, name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("tenant", tenant).Str("event_config", name).Msg("event config cache read failed")
		}
		return nil, false
	}
	var cfg domain.EventConfig
	if err := json.Unmarshal(val, &cfg); err != nil {
		log.Warn().Err(err).Str("tenant", tenant).Str("event_config", name).Msg("event config cache entry corrupt")
		return nil, false
	}
	return &cfg, true
}

// Set stores cfg under its name.
func (c *EventConfigCache) Set(ctx context.Context, tenant string, cfg *domain.EventConfig) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(tenant, cfg.Name), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("tenant", tenant).Str("event_config", cfg.Name).Msg("event config cache write failed")
	}
}

// Invalidate drops the cached configuration.
func (c *EventConfigCache) Invalidate(ctx context.Context, tenant, name string) error {
	return c.rdb.Del(ctx, key(tenant, name)).Err()
}

// Close closes the underlying client.
func (c *EventConfigCache) Close() error {
	return c.rdb.Close()
}
