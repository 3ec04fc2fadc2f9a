package cache

import (
	"path"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultCleanupInterval = time.Minute

// MemoryCache is the in-process level. Values are stored already encoded so
// callers never share memory with the cache. Expired entries are swept by the
// go-cache janitor, so per-user feed keys do not accumulate.
type MemoryCache struct {
	store *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	return newMemoryCache(defaultCleanupInterval)
}

func newMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{store: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Set stores data under key. A zero ttl never expires.
func (m *MemoryCache) Set(key string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.store.Set(key, data, ttl)
}

func (m *MemoryCache) Get(key string) ([]byte, bool) {
	value, ok := m.store.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := value.([]byte)
	return data, ok
}

func (m *MemoryCache) Delete(key string) {
	m.store.Delete(key)
}

// DeletePattern removes every live key matching a glob pattern, using the
// same '*' and '?' syntax as Redis KEYS/SCAN.
func (m *MemoryCache) DeletePattern(pattern string) int {
	removed := 0
	for key := range m.store.Items() {
		if ok, _ := path.Match(pattern, key); ok {
			m.store.Delete(key)
			removed++
		}
	}
	return removed
}

// Len counts unexpired entries.
func (m *MemoryCache) Len() int {
	return len(m.store.Items())
}

func (m *MemoryCache) Stats() map[string]interface{} {
	live := len(m.store.Items())
	stored := m.store.ItemCount()
	return map[string]interface{}{
		"entries": live,
		"expired": stored - live,
	}
}
