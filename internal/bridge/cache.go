package bridge

import "sync"

// Cache keys for fan state tracking, alongside per-attribute and
// per-frame dedup entries.
const (
	cacheKeySpeed = "speed"
	cacheKeyState = "state"
)

// stateCache remembers the last value seen per key so the bridge only
// publishes changes. It is cleared on every MQTT (re)connection and on
// serial reconnection, forcing a full republish: retained topics on the
// broker may be stale by then, and Home Assistant needs fresh values
// after its own restarts.
type stateCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newStateCache() *stateCache {
	return &stateCache{values: make(map[string]string)}
}

// Get returns the cached value for key and whether one is present.
func (c *stateCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok
}

// Put stores value under key.
func (c *stateCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Changed stores value under key and reports whether it differs from
// the previous entry. A missing entry counts as changed.
func (c *stateCache) Changed(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.values[key]
	if ok && prev == value {
		return false
	}
	c.values[key] = value
	return true
}

// Clear drops all entries.
func (c *stateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]string)
}

// Len returns the number of cached entries.
func (c *stateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}
