package main

import (
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache()
	c.Set(CacheKeyDataset, "value", time.Minute)

	v, ok := c.Get(CacheKeyDataset)
	if !ok || v.(string) != "value" {
		t.Fatalf("expected cached value, got (%v, %v)", v, ok)
	}
	if _, ok := c.Get(CacheKeyIndex); ok {
		t.Fatalf("expected miss for unset key")
	}
}

func TestCacheLazyExpiry(t *testing.T) {
	now := time.Now()
	c := NewCache()
	c.now = func() time.Time { return now }

	c.Set(CacheKeyDataset, "value", time.Minute)

	now = now.Add(30 * time.Second)
	if _, ok := c.Get(CacheKeyDataset); !ok {
		t.Fatalf("entry expired too early")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(CacheKeyDataset); ok {
		t.Fatalf("expected expired entry to be a miss")
	}
	// The expired read must have removed the entry.
	c.now = func() time.Time { return now.Add(-10 * time.Minute) }
	if _, ok := c.Get(CacheKeyDataset); ok {
		t.Fatalf("expected expired entry to be deleted on read")
	}
}

func TestCacheOverwriteAndDelete(t *testing.T) {
	c := NewCache()
	c.Set(CacheKeyProfile, 1, time.Minute)
	c.Set(CacheKeyProfile, 2, time.Minute)

	v, _ := c.Get(CacheKeyProfile)
	if v.(int) != 2 {
		t.Fatalf("expected overwrite to win, got %v", v)
	}

	c.Delete(CacheKeyProfile)
	if _, ok := c.Get(CacheKeyProfile); ok {
		t.Fatalf("expected delete to remove entry")
	}
}

func TestCacheFlush(t *testing.T) {
	c := NewCache()
	c.Set(CacheKeyDataset, 1, time.Minute)
	c.Set(CacheKeyIndex, 2, time.Minute)
	c.Flush()
	if _, ok := c.Get(CacheKeyDataset); ok {
		t.Fatalf("expected flush to clear all entries")
	}
	if _, ok := c.Get(CacheKeyIndex); ok {
		t.Fatalf("expected flush to clear all entries")
	}
}
