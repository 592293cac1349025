package cache

import (
	"context"
	"time"

	"tango-agenda/core/config"
	"tango-agenda/core/constants"
	"tango-agenda/core/logger"

	"github.com/redis/go-redis/v9"
)

// Cache wraps the redis client used for token blacklisting and login
// throttling.
type Cache struct {
	client *redis.Client
}

// NewCache connects to redis and verifies the connection.
func NewCache(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Cache:NewCache: ping failed", err)
		return nil, err
	}

	logger.Info("Redis cache initialized", "addr", cfg.Addr, "db", cfg.DB)
	return &Cache{client: client}, nil
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// ===================== Token blacklist =====================

// AddToTokenBlacklist marks a token as revoked until its natural expiry.
func (c *Cache) AddToTokenBlacklist(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, constants.RedisKeyTokenBlacklist+token, "1", ttl).Err()
}

// IsTokenBlacklisted reports whether a token has been revoked.
func (c *Cache) IsTokenBlacklisted(ctx context.Context, token string) bool {
	n, err := c.client.Exists(ctx, constants.RedisKeyTokenBlacklist+token).Result()
	if err != nil {
		logger.Error("Cache:IsTokenBlacklisted", err)
		return false
	}
	return n > 0
}

// ===================== Login throttling =====================

// IncrementLoginAttempt bumps the failed-attempt counter for an identifier.
func (c *Cache) IncrementLoginAttempt(ctx context.Context, identifier string) (int64, error) {
	key := constants.RedisKeyLoginAttempts + identifier
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		c.client.Expire(ctx, key, constants.BlockDuration)
	}
	return n, nil
}

// IsLoginBlocked reports whether an identifier has exceeded the attempt cap.
func (c *Cache) IsLoginBlocked(ctx context.Context, identifier string) bool {
	n, err := c.client.Get(ctx, constants.RedisKeyLoginAttempts+identifier).Int64()
	if err != nil {
		return false
	}
	return n >= constants.MaxLoginAttempts
}

// ResetLoginAttempts clears the counter after a successful login.
func (c *Cache) ResetLoginAttempts(ctx context.Context, identifier string) {
	if err := c.client.Del(ctx, constants.RedisKeyLoginAttempts+identifier).Err(); err != nil {
		logger.Error("Cache:ResetLoginAttempts", err)
	}
}
