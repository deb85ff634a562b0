package cache

import (
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps recent analyses in process memory. Stored entries are
// private copies, so a caller mutating its slice after Set or Get never
// changes what the next lookup sees.
type MemoryCache struct {
	items     *gocache.Cache
	evictions atomic.Uint64
}

// NewMemoryCache creates a memory cache. Expired entries are swept every
// cleanupInterval.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		items: gocache.New(defaultTTL, cleanupInterval),
	}
	c.items.OnEvicted(func(string, interface{}) {
		c.evictions.Add(1)
	})
	return c
}

// Get returns a copy of the cached analysis bytes
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	data, ok := val.([]byte)
	if !ok {
		return nil, false
	}
	return clone(data), true
}

// Set stores a copy of value; a zero ttl uses the cache default
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.items.Set(key, clone(value), ttl)
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

// Clear drops every entry without counting evictions
func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len returns the number of cached entries, including expired ones not yet swept
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}

// Evictions counts entries removed by expiry or Delete
func (c *MemoryCache) Evictions() uint64 {
	return c.evictions.Load()
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
