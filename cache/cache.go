package cache

import (
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	gocache_store "github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"
)

// NewCache returns an in-memory cache whose entries expire after expiration.
// A non-positive expiration keeps entries until they are deleted.
func NewCache[T any](expiration time.Duration) cache.CacheInterface[T] {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	return cache.New[T](gocache_store.NewGoCache(gocache.New(expiration, cleanupInterval(expiration))))
}

func cleanupInterval(expiration time.Duration) time.Duration {
	if expiration == gocache.NoExpiration {
		return 0
	}
	return expiration
}
