package cache

import (
	"context"
	"time"
)

// Store is a TTL key-value cache. Implementations must treat an expired entry
// as a miss, never as an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
