// Package cachemanager provides expiring in-memory caches and a read-through
// wrapper that loads missing values on demand.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values by key with a per-entry time to live.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
