package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/casaiglesia/casa-server/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		logger: logger,
	}, nil
}

func (c *CacheService) GetRedisClient() *redis.Client {
	return c.client
}

func (c *CacheService) Close() error {
	return c.client.Close()
}

func (c *CacheService) Get(ctx context.Context, key string, dest any) error {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // Key doesn't exist - not an error
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("get failed", "get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
			return errors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

func (c *CacheService) Del(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", key, err)
	}
	return nil
}

func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Error("Cache exists failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("exists failed", "exists", key, err)
	}
	return count > 0, nil
}

func (c *CacheService) SAdd(ctx context.Context, key string, members []string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}

	added, err := c.client.SAdd(ctx, key, args...).Result()
	if err != nil {
		c.logger.Error("Cache sadd failed", zap.String("key", key), zap.Error(err))
		return 0, errors.NewCacheError("sadd failed", "sadd", key, err)
	}

	return added, nil
}

func (c *CacheService) SRem(ctx context.Context, key string, members []string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}

	removed, err := c.client.SRem(ctx, key, args...).Result()
	if err != nil {
		c.logger.Error("Cache srem failed", zap.String("key", key), zap.Error(err))
		return 0, errors.NewCacheError("srem failed", "srem", key, err)
	}

	return removed, nil
}

func (c *CacheService) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		c.logger.Error("Cache smembers failed", zap.String("key", key), zap.Error(err))
		return []string{}, errors.NewCacheError("smembers failed", "smembers", key, err)
	}
	return members, nil
}

func (c *CacheService) SIsMember(ctx context.Context, key, member string) (bool, error) {
	exists, err := c.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		c.logger.Error("Cache sismember failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("sismember failed", "sismember", key, err)
	}
	return exists, nil
}

func (c *CacheService) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.client.Expire(ctx, key, ttl).Err(); err != nil {
		c.logger.Error("Cache expire failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("expire failed", "expire", key, err)
	}
	return nil
}
