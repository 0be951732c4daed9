// Package rediscache caches computed dashboard payloads in Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrMiss is returned when a key is absent.
var ErrMiss = errors.New("cache miss")

// Config holds cache settings.
type Config struct {
	// Addr is the Redis address
	Addr string
	// Password, empty for none
	Password string
	// DB index
	DB int
	// TTL applied to every entry
	TTL time.Duration
}

// DefaultConfig returns defaults for the dashboard cache. Stats change with
// every log entry so the TTL stays short.
func DefaultConfig() Config {
	return Config{
		Addr: "localhost:6379",
		TTL:  30 * time.Second,
	}
}

// Cache stores JSON values under namespaced keys.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a cache backed by the given Redis instance
func New(cfg Config, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{client: client, ttl: cfg.TTL, logger: logger}
}

// NewWithClient wraps an existing client, used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// DashboardKey builds the cache key for a patient's dashboard stats.
func DashboardKey(patientID string) string {
	return fmt.Sprintf("dashboard:%s", patientID)
}

// Get unmarshals the cached value into dest. Returns ErrMiss when absent.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cached value: %w", err)
	}
	return nil
}

// Set marshals and stores the value with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate removes a key. Missing keys are not an error.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// HealthCheck pings Redis
func (c *Cache) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying client
func (c *Cache) Close() error {
	return c.client.Close()
}
