// Package cache provides memo caches for bridge calls: a bounded in-memory
// LRU, a persistent SQLite store and a tiered combination of both.
package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/leapstack-labs/rbridge/pkg/value"
)

// DefaultSize is the LRU capacity used when none is given.
const DefaultSize = 256

// Stats are cache counters.
type Stats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

type lruEntry struct {
	key string
	val value.Value
}

// LRU is a fixed-capacity in-memory cache that evicts the least recently
// used entry. It is safe for concurrent use.
type LRU struct {
	mu    sync.Mutex
	size  int
	ll    *list.List
	items map[string]*list.Element
	stats Stats
}

// NewLRU creates an LRU holding at most size entries (DefaultSize if
// size <= 0).
func NewLRU(size int) *LRU {
	if size <= 0 {
		size = DefaultSize
	}
	return &LRU{
		size:  size,
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

// Get returns the entry for key and marks it as recently used.
func (c *LRU) Get(_ context.Context, key string) (value.Value, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return value.Value{}, false, nil
	}
	c.ll.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*lruEntry).val, true, nil
}

// Put stores v under key, evicting the oldest entry when full.
func (c *LRU) Put(_ context.Context, key string, v value.Value) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*lruEntry).val = v
		c.ll.MoveToFront(el)
		return nil
	}

	c.items[key] = c.ll.PushFront(&lruEntry{key: key, val: v})
	for c.ll.Len() > c.size {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*lruEntry).key)
		c.stats.Evictions++
	}
	return nil
}

// Len returns the number of entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats returns a snapshot of the counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = c.ll.Len()
	return s
}

// Purge removes every entry. Counters are kept.
func (c *LRU) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}
