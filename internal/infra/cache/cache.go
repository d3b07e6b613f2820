// Package cache is a generic in-memory TTL cache. The planner keeps two
// instances: one for calculated projection series, keyed on portfolio
// revision, and one for fx rate tables between source refreshes.
package cache

import (
	"sync"
	"time"
)

type slot[T any] struct {
	value    T
	deadline time.Time
}

// InMemory caches values for a fixed TTL. Safe for concurrent use.
type InMemory[T any] struct {
	mu   sync.RWMutex
	data map[string]slot[T]
	ttl  time.Duration
}

// New builds a cache whose entries expire after ttl. A background sweeper
// reclaims expired slots so long-lived keys do not leak.
func New[T any](ttl time.Duration) *InMemory[T] {
	c := &InMemory[T]{
		data: make(map[string]slot[T]),
		ttl:  ttl,
	}
	go c.sweep()
	return c
}

// Get returns the cached value for key, or false when the key is absent
// or its entry has expired.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	s, ok := c.data[key]
	c.mu.RUnlock()

	if !ok || !time.Now().Before(s.deadline) {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Set stores value under key with a fresh TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	c.data[key] = slot[T]{value: value, deadline: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// Delete drops key from the cache if present.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

func (c *InMemory[T]) sweep() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for now := range ticker.C {
		c.mu.Lock()
		for key, s := range c.data {
			if now.After(s.deadline) {
				delete(c.data, key)
			}
		}
		c.mu.Unlock()
	}
}
