// Package cache provides license evaluation caches. The Redis cache is the
// deployment default; the in-memory cache backs single-process setups and
// tests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/invtrack/backend/internal/domain/tenancy"
	"github.com/invtrack/backend/internal/infrastructure/config"
)

// RedisLicenseCache implements tenancy.EvaluationCache using Redis.
type RedisLicenseCache struct {
	client     *redis.Client
	ownsClient bool
	logger     *zap.Logger
}

// NewRedisLicenseCache connects a new Redis client and verifies the
// connection before returning.
func NewRedisLicenseCache(cfg config.RedisConfig, logger *zap.Logger) (*RedisLicenseCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisLicenseCache{client: client, ownsClient: true, logger: logger}, nil
}

// NewRedisLicenseCacheWithClient wraps an existing client. The caller keeps
// ownership and is responsible for closing it.
func NewRedisLicenseCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisLicenseCache {
	return &RedisLicenseCache{client: client, logger: logger}
}

func licenseCacheKey(tenantID string) string {
	return "license_eval:" + tenantID
}

// Get retrieves a cached evaluation. A miss and a cache failure both return
// nil so the caller falls through to the database.
func (c *RedisLicenseCache) Get(ctx context.Context, tenantID string) (*tenancy.Evaluation, error) {
	data, err := c.client.Get(ctx, licenseCacheKey(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("License cache read failed, treating as miss",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, nil
	}

	var eval tenancy.Evaluation
	if err := json.Unmarshal(data, &eval); err != nil {
		c.logger.Error("Corrupted license cache entry, dropping it",
			zap.String("tenant_id", tenantID), zap.Error(err))
		_ = c.client.Del(ctx, licenseCacheKey(tenantID))
		return nil, nil
	}
	return &eval, nil
}

// Set stores an evaluation for ttl.
func (c *RedisLicenseCache) Set(ctx context.Context, tenantID string, eval *tenancy.Evaluation, ttl time.Duration) error {
	if eval == nil {
		return nil
	}
	data, err := json.Marshal(eval)
	if err != nil {
		return fmt.Errorf("failed to marshal license evaluation: %w", err)
	}
	if err := c.client.Set(ctx, licenseCacheKey(tenantID), data, ttl).Err(); err != nil {
		c.logger.Warn("License cache write failed",
			zap.String("tenant_id", tenantID), zap.Error(err))
	}
	return nil
}

// Delete evicts a tenant's cached evaluation.
func (c *RedisLicenseCache) Delete(ctx context.Context, tenantID string) error {
	if err := c.client.Del(ctx, licenseCacheKey(tenantID)).Err(); err != nil {
		return fmt.Errorf("failed to evict license evaluation: %w", err)
	}
	return nil
}

// Close releases the client if this cache created it.
func (c *RedisLicenseCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

var _ tenancy.EvaluationCache = (*RedisLicenseCache)(nil)
