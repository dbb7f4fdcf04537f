package inmemory

import (
	"sync"
	"time"
)

// ttlMap is a mutex-guarded map whose entries expire. Expired entries are
// dropped lazily on read.
type ttlMap[V any] struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry[V]
	now     func() time.Time
}

type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func newTTLMap[V any]() *ttlMap[V] {
	return &ttlMap[V]{entries: make(map[string]ttlEntry[V]), now: time.Now}
}

func (m *ttlMap[V]) get(key string) (V, bool) {
	now := m.now()

	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if ok && entry.expiresAt.After(now) {
		return entry.value, true
	}

	if ok {
		m.mu.Lock()
		// Another writer may have refreshed the key in between.
		if current, still := m.entries[key]; still && !current.expiresAt.After(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
	}
	var zero V
	return zero, false
}

// set stores value for ttl. A non-positive ttl removes the key instead.
func (m *ttlMap[V]) set(key string, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ttl <= 0 {
		delete(m.entries, key)
		return
	}
	m.entries[key] = ttlEntry[V]{value: value, expiresAt: m.now().Add(ttl)}
}

func (m *ttlMap[V]) delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}
