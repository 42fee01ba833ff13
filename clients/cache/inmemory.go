package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// InMemoryCache is a size bounded LRU cache, entries expire after
// the expiration given to Set or the cache wide ttl, whichever is sooner
type InMemoryCache struct {
	data *expirable.LRU[string, cacheItem]
}

var _ Cache = (*InMemoryCache)(nil)

type cacheItem struct {
	data       []byte
	expiration time.Time
}

// NewInMemoryCache creates a cache holding at most size entries
// for at most ttl, a ttl <= 0 disables the cache wide expiry
func NewInMemoryCache(size int, ttl time.Duration) *InMemoryCache {
	return &InMemoryCache{
		data: expirable.NewLRU[string, cacheItem](size, nil, ttl),
	}
}

func (c *InMemoryCache) Set(ctx context.Context, key string, data []byte, expiration time.Duration) error {
	item := cacheItem{data: data}

	// -1 means cache indefinitely (bounded by the cache wide ttl)
	if expiration != -1 {
		item.expiration = time.Now().Add(expiration)
	}

	c.data.Add(key, item)

	return nil
}

func (c *InMemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	item, ok := c.data.Get(key)
	if !ok {
		return nil, ErrNotFound
	}

	if !item.expiration.IsZero() && time.Now().After(item.expiration) {
		c.data.Remove(key)
		return nil, ErrNotFound
	}

	return item.data, nil
}

func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.data.Remove(key)
	return nil
}

func (c *InMemoryCache) Healthcheck(ctx context.Context) error {
	return nil
}

// Len returns the number of entries currently held, including expired
// entries not yet evicted
func (c *InMemoryCache) Len() int {
	return c.data.Len()
}
