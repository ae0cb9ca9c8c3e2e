package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brokeranalysis/trust-service/internal/service"
	"github.com/redis/go-redis/v9"
)

// RedisScoreCache caches broker trust scores in redis. It implements
// service.ScoreCache.
type RedisScoreCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisScoreCache connects to redis using a redis:// URL and verifies the
// connection before returning.
func NewRedisScoreCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisScoreCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisScoreCache{client: client, ttl: ttl}, nil
}

// Get returns the cached score for a broker, or nil on a cache miss.
func (c *RedisScoreCache) Get(ctx context.Context, brokerID uint) (*service.BrokerScore, error) {
	val, err := c.client.Get(ctx, scoreKey(brokerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache read failed: %w", err)
	}

	var score service.BrokerScore
	if err := json.Unmarshal([]byte(val), &score); err != nil {
		return nil, fmt.Errorf("cache entry corrupt: %w", err)
	}

	return &score, nil
}

// Set stores the score for a broker with the configured TTL.
func (c *RedisScoreCache) Set(ctx context.Context, brokerID uint, score *service.BrokerScore) error {
	data, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("cache encode failed: %w", err)
	}
	if err := c.client.Set(ctx, scoreKey(brokerID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache write failed: %w", err)
	}
	return nil
}

// Close releases the redis connection.
func (c *RedisScoreCache) Close() error {
	return c.client.Close()
}

func scoreKey(brokerID uint) string {
	return fmt.Sprintf("trust_score:%d", brokerID)
}
