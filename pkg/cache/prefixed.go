package cache

import (
	"context"
	"time"
)

// PrefixedCache namespaces another cache by prepending a fixed prefix to
// every key. Several tools can then share one Redis database without
// stepping on each other.
//
//	sessions := cache.Prefixed(redisCache, "lockrisk:")
type PrefixedCache struct {
	inner  Cache
	prefix string
}

// Prefixed wraps inner with a key prefix. A nil inner behaves as a
// [NullCache].
func Prefixed(inner Cache, prefix string) Cache {
	if inner == nil {
		inner = NewNullCache()
	}
	return &PrefixedCache{inner: inner, prefix: prefix}
}

func (c *PrefixedCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.inner.Get(ctx, c.prefix+key)
}

func (c *PrefixedCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.inner.Set(ctx, c.prefix+key, data, ttl)
}

func (c *PrefixedCache) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, c.prefix+key)
}

// Close closes the wrapped cache.
func (c *PrefixedCache) Close() error { return c.inner.Close() }

var _ Cache = (*PrefixedCache)(nil)
