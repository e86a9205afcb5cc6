// Copyright 2025 Grug Framework
//
// The module cache: code hash to compiled module, with least-recently-used
// eviction bounded by total byte weight. Cached entries are immutable; each
// call clones the entry into a fresh instance, so no state leaks between
// invocations. Cache behavior affects performance only, never consensus.

package vm

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/simplelru"

	"github.com/grugnet/grug/pkg/metrics"
	"github.com/grugnet/grug/pkg/types"
)

type cachedModule struct {
	module any
	size   int
}

// ModuleCache is safe for concurrent use; module compilation may happen off
// the execution thread.
type ModuleCache struct {
	mu            sync.Mutex
	lru           *lru.LRU
	capacityBytes int
	usedBytes     int
}

// NewModuleCache builds a cache bounded by capacityBytes of module weight.
func NewModuleCache(capacityBytes int) *ModuleCache {
	c := &ModuleCache{capacityBytes: capacityBytes}
	// Entry-count bound is effectively unbounded; the byte weight is the
	// real limit, enforced below.
	inner, err := lru.NewLRU(1<<30, func(key, value any) {
		c.usedBytes -= value.(cachedModule).size
	})
	if err != nil {
		panic(err)
	}
	c.lru = inner
	return c
}

// Get returns the cached module for codeHash, if present.
func (c *ModuleCache) Get(codeHash types.Hash) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.lru.Get(codeHash)
	if !ok {
		metrics.ModuleCacheMisses.Inc()
		return nil, false
	}
	metrics.ModuleCacheHits.Inc()
	return entry.(cachedModule).module, true
}

// Put inserts a module with the given byte weight, evicting least-recently-
// used entries until the total weight fits.
func (c *ModuleCache) Put(codeHash types.Hash, module any, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.lru.Peek(codeHash); ok {
		c.usedBytes -= old.(cachedModule).size
	}
	c.lru.Add(codeHash, cachedModule{module: module, size: size})
	c.usedBytes += size
	for c.usedBytes > c.capacityBytes && c.lru.Len() > 0 {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
	metrics.ModuleCacheBytes.Set(float64(c.usedBytes))
}

// Len returns the number of cached modules.
func (c *ModuleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// UsedBytes returns the current total weight.
func (c *ModuleCache) UsedBytes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usedBytes
}
