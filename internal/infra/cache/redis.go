// Package cache provides the Redis connection used for flow sessions.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"github.com/user-accounts/backend/config"
)

// Redis wraps the go-redis client.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisConnection connects to Redis and waits until it answers a ping.
func NewRedisConnection(ctx context.Context, cfg *config.RedisConfig, retries uint64, log *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	backoff := retry.WithMaxRetries(retries, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("Redis not reachable yet", "addr", cfg.Addr, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis connection established", "addr", cfg.Addr, "db", cfg.DB)
	return NewRedis(client, log), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, log *slog.Logger) *Redis {
	return &Redis{client: client, logger: log}
}

// Client returns the underlying client.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// HealthCheck pings Redis.
func (r *Redis) HealthCheck(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		r.logger.Error("Redis health check failed", "error", err)
		return err
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}
	r.logger.Info("Redis connection closed")
	return nil
}
