// Package cache provides the byte stores behind the HTTP response cache.
// Redis is shared between instances; the in-process store is used when
// Redis is unavailable.
package cache

import (
	"context"
	"time"
)

// Store keeps opaque values under string keys with a TTL. Purge drops
// every entry the store owns.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Purge(ctx context.Context) error
}
