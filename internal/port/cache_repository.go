package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// GetProductList returns the cached catalog payload, nil on a miss.
	GetProductList(ctx context.Context) ([]byte, error)

	SetProductList(ctx context.Context, payload []byte, ttl time.Duration) error

	// InvalidateProductList drops the cached catalog after a product mutation.
	InvalidateProductList(ctx context.Context) error
}
