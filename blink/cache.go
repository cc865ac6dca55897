// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// defaultCacheCapacity bounds how many warm arenas ArenaCache keeps on
// hand before it starts dropping the oldest rather than growing without
// limit.
const defaultCacheCapacity = 32

// CacheConfig configures an ArenaCache. A zero-value CacheConfig is valid.
type CacheConfig struct {
	// Capacity bounds how many arenas the cache holds at rest. Defaults
	// to 32.
	Capacity int

	// ArenaConfig is used to build a fresh arena on a cache miss.
	ArenaConfig ArenaConfig
}

func (c CacheConfig) normalize() CacheConfig {
	if c.Capacity <= 0 {
		c.Capacity = defaultCacheCapacity
	}
	return c
}

// ArenaCache pools reset, ready-to-use LocalArena instances so callers on
// a request/response or per-task cycle can skip the chunk warm-up cost of
// building a fresh arena every time. It trades the original design's
// wait-free two-array handoff for a single short critical section around
// an LRU — simpler, and the lock is only ever held for a slice index
// update or map lookup, never across an allocation.
type ArenaCache struct {
	mu          sync.Mutex
	lru         *lru.Cache[uint64, *LocalArena]
	nextKey     uint64
	arenaConfig ArenaConfig
}

// NewArenaCache creates an empty ArenaCache. Arenas built to satisfy a
// cache miss use cfg.ArenaConfig; arenas evicted because the cache is at
// capacity are dropped via their own Drop method.
func NewArenaCache(cfg CacheConfig) *ArenaCache {
	cfg = cfg.normalize()

	c := &ArenaCache{arenaConfig: cfg.ArenaConfig}
	// The eviction callback runs synchronously inside Add, under the
	// cache's own lock, so it must not re-enter the cache.
	evictCache, err := lru.NewWithEvict(cfg.Capacity, func(_ uint64, arena *LocalArena) {
		arena.Drop()
	})
	if err != nil {
		// Only returned for a non-positive size, which normalize rules out.
		panic(err)
	}
	c.lru = evictCache
	return c
}

// NewDefaultArenaCache creates an ArenaCache with default capacity and
// default-configured arenas.
func NewDefaultArenaCache() *ArenaCache {
	return NewArenaCache(CacheConfig{})
}

// Borrow removes a warm arena from the cache if one is available, or
// builds a fresh one otherwise. The returned arena is always ready to
// allocate from immediately.
func (c *ArenaCache) Borrow() *LocalArena {
	c.mu.Lock()
	key, arena, ok := c.lru.RemoveOldest()
	c.mu.Unlock()

	if ok {
		return arena
	}
	_ = key
	return NewLocalArena(c.arenaConfig)
}

// Return resets arena, discarding everything it held, and files it back
// into the cache for reuse. If the cache is already at capacity, the
// oldest warm arena is evicted and dropped to make room.
func (c *ArenaCache) Return(arena *LocalArena) {
	arena.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextKey++
	c.lru.Add(c.nextKey, arena)
}

// Len reports how many warm arenas the cache currently holds.
func (c *ArenaCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Purge drops every cached arena and empties the cache.
func (c *ArenaCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}
