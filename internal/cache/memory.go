package cache

import (
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the in-process L1. Values are stored as JSON so reads get
// their own copy and L1/L2 round-trip identically. Expired entries are
// dropped lazily on read and swept periodically.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	metrics *CacheMetrics
	stopCh  chan struct{}
	once    sync.Once
}

func NewMemoryCache() *MemoryCache {
	m := &MemoryCache{
		entries: make(map[string]memoryEntry),
		metrics: NewCacheMetrics(),
		stopCh:  make(chan struct{}),
	}
	go m.sweepLoop(time.Minute)
	return m
}

func (m *MemoryCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	expiresAt := time.Time{}
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = memoryEntry{data: data, expiresAt: expiresAt}
	m.mu.Unlock()

	m.metrics.RecordSet()
	return nil
}

func (m *MemoryCache) Get(key string, dest interface{}) error {
	m.mu.RLock()
	entry, found := m.entries[key]
	m.mu.RUnlock()

	if found && !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.Delete(key)
		found = false
	}
	if !found {
		m.metrics.RecordMiss()
		return ErrCacheMiss
	}

	if err := json.Unmarshal(entry.data, dest); err != nil {
		m.metrics.RecordError()
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}

	m.metrics.RecordHit()
	return nil
}

func (m *MemoryCache) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	m.metrics.RecordDelete()
	return nil
}

// DeletePattern removes every key matching a glob pattern, mirroring the
// redis KEYS-based invalidation on L2.
func (m *MemoryCache) DeletePattern(pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *MemoryCache) Exists(key string) (bool, error) {
	m.mu.RLock()
	entry, found := m.entries[key]
	m.mu.RUnlock()

	if found && !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return false, nil
	}
	return found, nil
}

func (m *MemoryCache) Stats() map[string]interface{} {
	m.mu.RLock()
	size := len(m.entries)
	m.mu.RUnlock()

	stats := m.metrics.GetStats()
	return map[string]interface{}{
		"entries":  size,
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"deletes":  stats.Deletes,
		"errors":   stats.Errors,
		"hit_rate": m.metrics.HitRate(),
	}
}

func (m *MemoryCache) Health() error {
	return nil
}

func (m *MemoryCache) Close() error {
	m.once.Do(func() { close(m.stopCh) })
	return nil
}

func (m *MemoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, entry := range m.entries {
				if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
