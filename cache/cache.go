// Package cache holds short-lived copies of store reads. Entries expire
// lazily on Get but remain reachable through GetStale until evicted, so a
// degraded store can still be answered from the last known value.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// Cache is implemented by the in-process LRU and the Redis backend.
type Cache[V any] interface {
	Get(key string) (V, bool)
	GetStale(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	DeletePrefix(prefix string)
}

type entry[V any] struct {
	key     string
	value   V
	stored  time.Time
	ttl     time.Duration
	expired bool
}

// LRU is a bounded cache evicting the least recently used key once
// capacity is reached. Safe for concurrent use.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
	now      func() time.Time
}

func NewLRU[V any](capacity int) *LRU[V] {
	if capacity <= 0 {
		capacity = 500
	}
	return &LRU[V]{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
		now:      time.Now,
	}
}

// Get returns a fresh value. An entry is fresh while now - stored < ttl,
// so a zero ttl is already expired on the next Get. Expired entries are
// dropped from fresh reads and kept for GetStale.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if e.expired || c.now().Sub(e.stored) >= e.ttl {
		e.expired = true
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// GetStale ignores the TTL.
func (c *LRU[V]) GetStale(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	return el.Value.(*entry[V]).value, true
}

func (c *LRU[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value = &entry[V]{key: key, value: value, stored: c.now(), ttl: ttl}
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, stored: c.now(), ttl: ttl})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry[V]).key)
	}
}

func (c *LRU[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
}

func (c *LRU[V]) DeletePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, el := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.order.Remove(el)
			delete(c.items, key)
		}
	}
}

func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
