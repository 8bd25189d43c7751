package cache

import (
	"sync"
	"time"
)

// Entry is a cached value with the hash of the source it was computed from.
type Entry[V any] struct {
	Value       V
	Hash        string
	Path        string
	CachedAt    time.Time
	LastChecked time.Time
}

// Cache maps file paths to the value computed from their last seen
// content. It is safe for concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*Entry[V]
}

// New creates an empty cache
func New[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[string]*Entry[V])}
}

// Get returns the value cached for path if it was computed from content
// with the given hash. A hit refreshes LastChecked.
func (c *Cache[V]) Get(path, hash string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok || entry.Hash != hash {
		var zero V
		return zero, false
	}
	entry.LastChecked = time.Now()
	return entry.Value, true
}

// Set stores the value computed from content with the given hash
func (c *Cache[V]) Set(path, hash string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.entries[path] = &Entry[V]{
		Value:       value,
		Hash:        hash,
		Path:        path,
		CachedAt:    now,
		LastChecked: now,
	}
}

// Invalidate removes an entry from the cache
func (c *Cache[V]) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

// Size returns the number of cached entries
func (c *Cache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Prune removes entries that haven't been checked in the given duration
func (c *Cache[V]) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	pruned := 0
	for path, entry := range c.entries {
		if now.Sub(entry.LastChecked) > maxAge {
			delete(c.entries, path)
			pruned++
		}
	}
	return pruned
}
