package dataset

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/KaramelBytes/datadash/internal/table"
)

type cacheEntry struct {
	table    *table.Table
	loadedAt time.Time
}

// Cache memoizes loaded tables by local path for the life of the process.
// There is no eviction; Forget and Clear are the only invalidation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the table cached for path.
func (c *Cache) Get(path string) (*table.Table, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[filepath.Clean(path)]
	return e.table, ok
}

// Put stores t under path, replacing any previous entry.
func (c *Cache) Put(path string, t *table.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[filepath.Clean(path)] = cacheEntry{table: t, loadedAt: time.Now()}
}

// LoadedAt returns when path was cached.
func (c *Cache) LoadedAt(path string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[filepath.Clean(path)]
	return e.loadedAt, ok
}

// Forget drops the entry for path.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, filepath.Clean(path))
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of cached tables.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the cached paths in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
