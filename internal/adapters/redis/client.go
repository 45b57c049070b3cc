package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/amyangfei/redlock-go/v3/redlock"
	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/selivandex/agent-registry/internal/adapters/config"
	"github.com/selivandex/agent-registry/pkg/logger"
)

// Client wraps a RedLock manager for distributed agent locking plus a
// standard Redis client for price caching and event pub/sub
type Client struct {
	lockManager *redlock.RedLock
	cache       *redis.Client
	redisAddrs  []string
}

// New creates new Redis client with RedLock support
func New(cfg *config.RedisConfig) (*Client, error) {
	addr := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)

	// Single instance for now; a clustered deployment would list all
	// redlock nodes here
	redisAddrs := []string{addr}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	lockManager, err := redlock.NewRedLock(ctx, redisAddrs)
	if err != nil {
		return nil, fmt.Errorf("failed to create redlock manager: %w", err)
	}

	cacheClient := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	if err := cacheClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("redis client initialized",
		zap.String("address", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &Client{
		lockManager: lockManager,
		redisAddrs:  redisAddrs,
		cache:       cacheClient,
	}, nil
}

// GetLockFactory returns a lock factory for creating agent locks
func (c *Client) GetLockFactory(ttl time.Duration) LockFactory {
	return NewRedisLockFactory(c.lockManager, ttl)
}

// Close closes redis connections
func (c *Client) Close() error {
	if c.cache != nil {
		logger.Info("closing redis client")
		if err := c.cache.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	return nil
}

// Health checks redis health
func (c *Client) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := c.cache.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Get retrieves value from Redis cache
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	return c.cache.Get(ctx, key)
}

// Set stores value in Redis cache with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return c.cache.Set(ctx, key, value, expiration)
}

// Publish publishes a message on a pub/sub channel
func (c *Client) Publish(ctx context.Context, channel string, payload interface{}) *redis.IntCmd {
	return c.cache.Publish(ctx, channel, payload)
}
