// Copyright 2025 Grug Framework

package vm

import (
	"fmt"
	"testing"

	"github.com/grugnet/grug/pkg/types"
)

func TestModuleCacheHitAndMiss(t *testing.T) {
	cache := NewModuleCache(1024)
	hash := types.HashOf([]byte("module"))

	if _, ok := cache.Get(hash); ok {
		t.Fatal("empty cache must miss")
	}
	cache.Put(hash, "compiled", 100)
	module, ok := cache.Get(hash)
	if !ok || module.(string) != "compiled" {
		t.Fatalf("expected hit, got %v (ok=%v)", module, ok)
	}
}

func TestModuleCacheByteWeightedEviction(t *testing.T) {
	cache := NewModuleCache(250)
	hashes := make([]types.Hash, 4)
	for i := range hashes {
		hashes[i] = types.HashOf([]byte(fmt.Sprintf("module-%d", i)))
		cache.Put(hashes[i], i, 100)
	}
	// Capacity fits two 100-byte entries; the oldest two must be gone.
	if cache.UsedBytes() > 250 {
		t.Errorf("cache exceeds byte budget: %d", cache.UsedBytes())
	}
	if _, ok := cache.Get(hashes[0]); ok {
		t.Error("oldest entry must be evicted")
	}
	if _, ok := cache.Get(hashes[3]); !ok {
		t.Error("newest entry must survive")
	}
}

func TestModuleCacheLRUOrdering(t *testing.T) {
	cache := NewModuleCache(200)
	a := types.HashOf([]byte("a"))
	b := types.HashOf([]byte("b"))
	cache.Put(a, "a", 100)
	cache.Put(b, "b", 100)

	// Touch a so that b becomes the LRU victim.
	if _, ok := cache.Get(a); !ok {
		t.Fatal("expected a to be cached")
	}
	cache.Put(types.HashOf([]byte("c")), "c", 100)

	if _, ok := cache.Get(a); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := cache.Get(b); ok {
		t.Error("least recently used entry survived")
	}
}

func TestModuleCacheReplaceSameKey(t *testing.T) {
	cache := NewModuleCache(1000)
	hash := types.HashOf([]byte("m"))
	cache.Put(hash, "v1", 400)
	cache.Put(hash, "v2", 300)
	if cache.UsedBytes() != 300 {
		t.Errorf("replacing an entry must not double-count weight: %d", cache.UsedBytes())
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", cache.Len())
	}
}
