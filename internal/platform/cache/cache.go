// Package cache provides the process wide TTL cache for resolved nutrition
// records plus in flight request coalescing keyed by normalized query
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is how long an authoritative resolution stays servable
const DefaultTTL = 24 * time.Hour

// Store is the injected cache collaborator. Implementations must be safe for
// concurrent use; tests substitute in memory fakes with controlled clocks
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Evict(key string)
	Len() int
}

// entry is a stored value with its creation time
type entry struct {
	value     any
	createdAt time.Time
}

// Memory is the in process Store. Expired entries are treated as absent and
// lazily evicted on the lookup that finds them stale
type Memory struct {
	mu  sync.RWMutex
	m   map[string]entry
	ttl time.Duration
	now func() time.Time
}

// Option configures a Memory store
type Option func(*Memory)

// WithTTL overrides the default 24h entry lifetime
func WithTTL(ttl time.Duration) Option {
	return func(c *Memory) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects a clock for tests
func WithClock(now func() time.Time) Option {
	return func(c *Memory) {
		if now != nil {
			c.now = now
		}
	}
}

// NewMemory builds an empty store with the default TTL
func NewMemory(opts ...Option) *Memory {
	c := &Memory{
		m:   make(map[string]entry),
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the live value for key. A stale entry is evicted and reported absent
func (c *Memory) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		c.evictStale(key, e.createdAt)
		return nil, false
	}
	return e.value, true
}

// evictStale deletes key only if the entry is still the one observed stale; a
// concurrent Set between the read and this delete wins
func (c *Memory) evictStale(key string, createdAt time.Time) {
	c.mu.Lock()
	if e, ok := c.m[key]; ok && e.createdAt.Equal(createdAt) {
		delete(c.m, key)
	}
	c.mu.Unlock()
}

// Set stores value under key stamped with the current clock
func (c *Memory) Set(key string, value any) {
	c.mu.Lock()
	c.m[key] = entry{value: value, createdAt: c.now()}
	c.mu.Unlock()
}

// Evict removes key if present
func (c *Memory) Evict(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

// Len reports the number of entries including not-yet-collected stale ones
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
