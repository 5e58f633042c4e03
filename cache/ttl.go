// Package cache provides a small mutex-guarded TTL cache used for the
// router method cache and the settings cache. The clock is injected so
// expiry can be tested without sleeping.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL is a string-keyed cache with per-entry expiry.
// Safe for concurrent use.
type TTL[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	now     func() time.Time
}

// New creates a cache using the real clock
func New[V any]() *TTL[V] {
	return NewWithClock[V](time.Now)
}

// NewWithClock creates a cache with an injected clock
func NewWithClock[V any](now func() time.Time) *TTL[V] {
	return &TTL[V]{
		entries: make(map[string]entry[V]),
		now:     now,
	}
}

// Get returns the cached value if present and unexpired
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expires) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Put stores value under key for ttl
func (c *TTL[V]) Put(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expires: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes key, if present
func (c *TTL[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Sweep removes every expired entry and returns how many were dropped
func (c *TTL[V]) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
			dropped++
		}
	}
	return dropped
}
