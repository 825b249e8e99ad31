package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/forgo/accord/internal/model"
)

// RedisConfig holds configuration for the redis result cache
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisCache stores results as JSON strings with a TTL
type RedisCache struct {
	rdb    goredis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to redis and verifies the connection
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, *goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil, errors.New("redis address is required")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisCacheFromClient(rdb, cfg.Prefix, cfg.TTL), rdb, nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(rdb goredis.Cmdable, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "accord:compat:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*model.CompatibilityResult, bool, error) {
	raw, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var result model.CompatibilityResult
	if err := json.Unmarshal(raw, &result); err != nil {
		// A corrupt entry is a miss; the next Set overwrites it
		return nil, false, nil
	}
	return &result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, result *model.CompatibilityResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := c.rdb.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
