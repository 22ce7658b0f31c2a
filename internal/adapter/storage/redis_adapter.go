package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	productListKey    = "products:all"
	idempotencyKeyTTL = 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) GetProductList(ctx context.Context) ([]byte, error) {
	payload, err := r.client.Get(ctx, productListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *RedisAdapter) SetProductList(ctx context.Context, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, productListKey, payload, ttl).Err()
}

func (r *RedisAdapter) InvalidateProductList(ctx context.Context) error {
	return r.client.Del(ctx, productListKey).Err()
}
