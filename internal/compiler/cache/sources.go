package cache

import "sync"

// SourceCache remembers the fingerprint of each package directory's
// sources as of the last successful generation.
type SourceCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewSourceCache creates an empty SourceCache
func NewSourceCache() *SourceCache {
	return &SourceCache{entries: make(map[string]string)}
}

// Fresh reports whether dir was last generated from sources with the given
// fingerprint.
func (c *SourceCache) Fresh(dir, fingerprint string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prev, ok := c.entries[dir]
	return ok && prev == fingerprint
}

// Store records the fingerprint dir was generated from
func (c *SourceCache) Store(dir, fingerprint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[dir] = fingerprint
}

// Invalidate forgets dir
func (c *SourceCache) Invalidate(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, dir)
}

// Len returns the number of remembered directories
func (c *SourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
