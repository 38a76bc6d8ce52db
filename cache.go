package main

import (
	"sync"
	"time"
)

// CacheKey is a typed cache key; using distinct constants instead of ad
// hoc strings removes key-collision risk between components.
type CacheKey string

const (
	CacheKeyDataset CacheKey = "MOVMAT_DATA"
	CacheKeyIndex   CacheKey = "MOVMAT_INDEX_V1"
	CacheKeyProfile CacheKey = "MOVMAT_PROFILE_V1"
)

type cacheEntry struct {
	value  any
	expiry time.Time
}

// Cache is a time-boxed in-memory store. Entries expire lazily: a read
// past expiry behaves like absence and removes the entry. Get and Set
// are individually atomic; no cross-key transaction exists, so derived
// entries (index, profile) must be rebuildable from the dataset entry.
type Cache struct {
	mu      sync.Mutex
	entries map[CacheKey]cacheEntry
	now     func() time.Time
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[CacheKey]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached value, or (nil, false) if the key is absent or
// expired. Expired entries are deleted on read.
func (c *Cache) Get(key CacheKey) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiry) {
		delete(c.entries, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores a value with the given TTL, overwriting any previous entry.
func (c *Cache) Set(key CacheKey, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiry: c.now().Add(ttl)}
}

func (c *Cache) Delete(key CacheKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]cacheEntry)
}
