package upstream

import (
	"sync"

	"github.com/aegeanview/hotelhub/internal/metrics"
)

// Cache holds the last known state of every entity the platform has ever
// reported. It lives for the whole process: it is seeded on first connect,
// reseeded (never cleared) on reconnect, and updated on every push. There is
// no eviction — the entity universe of one property is small and fixed.
//
// Written only by the connection manager; read by anyone via Snapshot.
type Cache struct {
	mu       sync.RWMutex
	entities map[string]EntityState
	status   Status
}

// NewCache returns an empty cache in the connecting state.
func NewCache() *Cache {
	return &Cache{
		entities: make(map[string]EntityState),
		status:   StatusConnecting,
	}
}

// Set stores the state for one entity, replacing any previous value.
func (c *Cache) Set(state EntityState) {
	c.mu.Lock()
	c.entities[state.EntityID] = state
	metrics.CacheSize.Set(float64(len(c.entities)))
	c.mu.Unlock()
}

// SetAll merges a full state fetch into the cache. Existing entries are
// overwritten, entries absent from the fetch are kept — reconciliation
// repairs drift without ever shrinking the cache.
func (c *Cache) SetAll(states []EntityState) {
	c.mu.Lock()
	for _, s := range states {
		c.entities[s.EntityID] = s
	}
	metrics.CacheSize.Set(float64(len(c.entities)))
	c.mu.Unlock()
}

// Get returns the cached state for one entity.
func (c *Cache) Get(entityID string) (EntityState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entities[entityID]
	return s, ok
}

// Snapshot returns a copy of the full cache. Callers may hold the result
// across blocking operations; it never aliases live cache memory.
func (c *Cache) Snapshot() map[string]EntityState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]EntityState, len(c.entities))
	for id, s := range c.entities {
		out[id] = s
	}
	return out
}

// Len returns the number of cached entities.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}

// Status returns the current connection status.
func (c *Cache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// SetStatus records a connection status transition.
func (c *Cache) SetStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()
}
