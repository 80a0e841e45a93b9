package recall

import (
	"sync"
	"time"
)

// DefaultRecallTTL is how long a recalled identifier suppresses repeat action.
const DefaultRecallTTL = 5 * time.Minute

// RecentCache remembers identifiers that were recently recalled so repeat
// requests inside the TTL short-circuit. Entries are only added or
// refreshed; nothing sweeps the map, which is acceptable at moderation
// request volumes for the lifetime of one coordinator.
type RecentCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func NewRecentCache(ttl time.Duration) *RecentCache {
	if ttl <= 0 {
		ttl = DefaultRecallTTL
	}
	return &RecentCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Record marks mid as recalled now.
func (c *RecentCache) Record(mid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[mid] = c.now()
}

// Recent reports whether mid was recalled within the TTL window.
func (c *RecentCache) Recent(mid string) bool {
	if mid == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[mid]
	return ok && c.now().Sub(t) < c.ttl
}
