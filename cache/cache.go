package cache

import (
	"fmt"
	"sync"
)

// DefaultCapacity bounds the translation memo in the hub.
const DefaultCapacity = 100

// Cache is a bounded string-to-string memo with pure insertion-order
// eviction: once full, the oldest-inserted key is removed first. It is
// not an LRU: reads never reorder entries. Overwriting an existing key
// keeps its original insertion slot.
//
// It memoizes external translation calls; a miss only costs an extra
// call, so concurrent lookups for the same key are not deduplicated
// in flight.
type Cache struct {
	mu      sync.Mutex
	entries map[string]string
	keys    []string // ring of insertion order
	head    int
	count   int
}

// New creates a Cache holding at most capacity entries.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	return &Cache{
		entries: make(map[string]string, capacity),
		keys:    make([]string, capacity),
	}, nil
}

// Get returns the memoized value for key, if present.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Put inserts or overwrites key, evicting the oldest-inserted entry
// when the cache is full.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = value
		return
	}
	if c.count == len(c.keys) {
		oldest := c.keys[c.head]
		delete(c.entries, oldest)
		c.keys[c.head] = key
		c.head = (c.head + 1) % len(c.keys)
	} else {
		c.keys[(c.head+c.count)%len(c.keys)] = key
		c.count++
	}
	c.entries[key] = value
}

// Len returns the number of entries currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
