// Package cache provides a small in-memory TTL cache used to serve
// repeated forecast reads without hitting storage.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// TTLCache is a bounded cache with per-entry expiry and least recently
// used eviction when full.
type TTLCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List
}

type entry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

// New creates a TTLCache holding at most maxSize entries, each valid
// for ttl after being set.
func New[T any](maxSize int, ttl time.Duration) *TTLCache[T] {
	return &TTLCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the cached value for key, if present and not expired.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	e := elem.Value.(*entry[T])
	if time.Now().After(e.expiresAt) {
		c.remove(elem)
		return zero, false
	}
	c.order.MoveToFront(elem)
	return e.value, true
}

// Set stores value under key, evicting the oldest entry when the cache
// is full.
func (c *TTLCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	if elem, ok := c.entries[key]; ok {
		elem.Value = e
		c.order.MoveToFront(elem)
		return
	}
	c.entries[key] = c.order.PushFront(e)
	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

// Invalidate drops a single key.
func (c *TTLCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
}

// Flush drops every entry. Called after a write changes the ledger or
// forecast so stale reads never survive an ingest.
func (c *TTLCache[T]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Sweep removes expired entries and reports how many were dropped.
func (c *TTLCache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var stale []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			stale = append(stale, elem)
		}
	}
	for _, elem := range stale {
		c.remove(elem)
	}
	return len(stale)
}

// Len returns the number of live entries.
func (c *TTLCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTLCache[T]) remove(elem *list.Element) {
	delete(c.entries, elem.Value.(*entry[T]).key)
	c.order.Remove(elem)
}
