package codecrafters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisPagePrefix = "codecrafters:page:"

// RedisPageStore shares rendered pages between instances through Redis.
// Entries carry no Redis expiry; staleness is decided by PageCache.
type RedisPageStore struct {
	client *redis.Client
}

// NewRedisPageStore connects to addr and verifies the connection.
func NewRedisPageStore(ctx context.Context, addr, password string, db int) (*RedisPageStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisPageStore{client: client}, nil
}

func (r *RedisPageStore) Get(ctx context.Context, key string) (Page, bool, error) {
	raw, err := r.client.Get(ctx, redisPagePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Page{}, false, nil
	}
	if err != nil {
		return Page{}, false, err
	}
	var p Page
	if err := json.Unmarshal(raw, &p); err != nil {
		return Page{}, false, fmt.Errorf("decode page %s: %w", key, err)
	}
	return p, true, nil
}

func (r *RedisPageStore) Set(ctx context.Context, key string, p Page) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisPagePrefix+key, raw, 0).Err()
}

func (r *RedisPageStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisPagePrefix+key).Err()
}

// Close closes the Redis client.
func (r *RedisPageStore) Close() error {
	return r.client.Close()
}
