package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU is a bounded in-memory cache with a fixed TTL per entry. When full, the
// least recently used entry is evicted. Safe for concurrent use.
type LRU[V any] struct {
	entries *expirable.LRU[string, V]
}

// NewLRU returns a cache holding at most capacity entries for ttl each.
// A capacity below 1 is treated as 1.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &LRU[V]{entries: expirable.NewLRU[string, V](capacity, nil, ttl)}
}

// Get returns the value for key if present and unexpired.
func (c *LRU[V]) Get(key string) (V, bool) {
	return c.entries.Get(key)
}

// Put stores value under key, evicting the least recently used entry when full.
// Storing an existing key refreshes its TTL.
func (c *LRU[V]) Put(key string, value V) {
	c.entries.Add(key, value)
}

// Len returns the number of stored entries. Expired entries count until the
// background sweep removes them.
func (c *LRU[V]) Len() int {
	return c.entries.Len()
}
