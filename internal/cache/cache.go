// Package cache implements a bounded LRU in front of lazy-loaded,
// file-backed attribute payloads, built on hashicorp/golang-lru/v2.
// Eviction calls the same release path as an explicit ReleaseAttrData,
// so cache pressure and explicit release share one code path.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/foogod/go-omrx/internal/attr"
)

// DefaultCapacity bounds how many distinct attribute payloads the cache
// keeps resident across all tracked containers.
const DefaultCapacity = 512

// Key identifies one attribute's payload within a specific container
// file, since the same chunk file position is meaningless across
// different open containers.
type Key struct {
	Path     string
	ChunkPos int64
	AttrID   uint16
}

// Cache tracks recently-loaded attribute payloads and releases the
// least-recently-touched one once capacity is exceeded.
type Cache struct {
	lru *lru.Cache[Key, *attr.Attribute]
}

// New constructs a cache bounded to capacity entries (DefaultCapacity if
// capacity <= 0).
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l, _ := lru.NewWithEvict[Key, *attr.Attribute](capacity, func(_ Key, a *attr.Attribute) {
		a.Release()
	})
	return &Cache{lru: l}
}

// keyFor derives a's cache key under path. Attributes without a file
// position (in-memory-only) have nothing worth tracking; callers should
// not call Touch for those.
func keyFor(path string, a *attr.Attribute) Key {
	return Key{Path: path, ChunkPos: a.FilePos, AttrID: a.ID}
}

// Touch records that a was just loaded under path, making it the most
// recently used entry. Evicting an older entry releases its payload.
func (c *Cache) Touch(path string, a *attr.Attribute) {
	if !a.IsFileBacked() {
		return
	}
	c.lru.Add(keyFor(path, a), a)
}

// Release explicitly evicts a from the cache and frees its payload,
// mirroring Container.ReleaseAttrData but also dropping the cache's own
// bookkeeping for it.
func (c *Cache) Release(path string, a *attr.Attribute) {
	c.lru.Remove(keyFor(path, a))
	a.Release()
}

// Forget drops every entry recorded under path without touching any
// other container's cached payloads, so a caller can invalidate one
// container whose file changed or was removed.
func (c *Cache) Forget(path string) {
	for _, key := range c.lru.Keys() {
		if key.Path == path {
			c.lru.Remove(key)
		}
	}
}

// Len returns the number of tracked entries.
func (c *Cache) Len() int {
	return c.lru.Len()
}
