package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"
)

type entry struct {
	key string
	ts  time.Time
}

type item struct {
	value []byte
	ts    time.Time
}

// Cache keeps a bounded set of recent search responses keyed by request body.
type Cache struct {
	mu       sync.Mutex
	items    map[string]item
	order    []entry
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// New creates a cache with the provided capacity and ttl.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{
		items:    make(map[string]item, capacity),
		order:    make([]entry, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Key hashes a request body into a cache key.
func Key(body []byte) string {
	s := sha1.Sum(body)
	return hex.EncodeToString(s[:])
}

// Get returns the stored value while it is inside the ttl window.
func (c *Cache) Get(key string) ([]byte, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok || now.Sub(it.ts) > c.ttl {
		return nil, false
	}
	return it.value, true
}

// Put stores value under key, evicting the oldest entries past capacity.
func (c *Cache) Put(key string, value []byte) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; ok {
		c.unlink(key)
	}
	c.items[key] = item{value: value, ts: now}
	c.order = append(c.order, entry{key: key, ts: now})
	c.compact(now)
}

// Len reports how many keys are held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache) compact(now time.Time) {
	cutoff := now.Add(-c.ttl)

	for len(c.order) > 0 && (len(c.items) > c.capacity || c.order[0].ts.Before(cutoff)) {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest.key)
	}
}

// unlink removes the order entry of key; every held key has exactly one.
func (c *Cache) unlink(key string) {
	for i, e := range c.order {
		if e.key == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
