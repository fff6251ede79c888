package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis backs the summary cache with a shared Redis instance so several
// API replicas see the same invalidations.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the Redis instance at rawURL (redis:// or rediss://)
// and verifies the connection with a ping.
func NewRedis(rawURL string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (c *Redis) Set(ctx context.Context, key string, data []byte) {
	c.client.Set(ctx, key, data, c.ttl)
}

func (c *Redis) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, key)
}

func (c *Redis) DeletePrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}

// Close releases the underlying connection pool.
func (c *Redis) Close() error {
	return c.client.Close()
}
