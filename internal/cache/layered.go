package cache

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/ppiankov/cliniprov/internal/model"
)

// Stats counts cache lookups and memory evictions
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// LayeredCache implements a multi-layer cache (memory + optional disk)
type LayeredCache struct {
	memory *MemoryCache
	disk   Cache // nil when no disk directory is configured
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewLayeredCache creates a new layered cache from configuration
func NewLayeredCache(cfg model.CacheConfig) *LayeredCache {
	c := &LayeredCache{
		memory: NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
	}
	if cfg.DiskDir != "" {
		c.disk = NewDiskCache(cfg.DiskDir, cfg.DiskTTL)
	}
	return c
}

// Get retrieves a value from the cache (checks memory first, then disk)
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		c.hits.Add(1)
		return val, true
	}

	if c.disk != nil {
		if val, found := c.disk.Get(key); found {
			// Promote to memory cache
			_ = c.memory.Set(key, val, 0)
			c.hits.Add(1)
			return val, true
		}
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores a value in every layer
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	if c.disk != nil {
		if err := c.disk.Set(key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a value from every layer
func (c *LayeredCache) Delete(key string) error {
	err := c.memory.Delete(key)
	if c.disk != nil {
		err = errors.Join(err, c.disk.Delete(key))
	}
	return err
}

// Clear removes all values from every layer
func (c *LayeredCache) Clear() error {
	err := c.memory.Clear()
	if c.disk != nil {
		err = errors.Join(err, c.disk.Clear())
	}
	return err
}

// Len returns the number of entries held in memory
func (c *LayeredCache) Len() int {
	return c.memory.Len()
}

// Stats returns lookup counters since creation
func (c *LayeredCache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.memory.Evictions(),
	}
}
