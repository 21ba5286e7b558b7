package cache

import "sync"

type CacheMetrics struct {
	mu      sync.RWMutex
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Sets    int64 `json:"sets"`
	Deletes int64 `json:"deletes"`
	Errors  int64 `json:"errors"`
}

func NewCacheMetrics() *CacheMetrics {
	return &CacheMetrics{}
}

func (m *CacheMetrics) RecordHit() {
	m.mu.Lock()
	m.Hits++
	m.mu.Unlock()
}

func (m *CacheMetrics) RecordMiss() {
	m.mu.Lock()
	m.Misses++
	m.mu.Unlock()
}

func (m *CacheMetrics) RecordError() {
	m.mu.Lock()
	m.Errors++
	m.mu.Unlock()
}

func (m *CacheMetrics) RecordSet() {
	m.mu.Lock()
	m.Sets++
	m.mu.Unlock()
}

func (m *CacheMetrics) RecordDelete() {
	m.mu.Lock()
	m.Deletes++
	m.mu.Unlock()
}

func (m *CacheMetrics) GetStats() CacheMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return CacheMetrics{
		Hits:    m.Hits,
		Misses:  m.Misses,
		Sets:    m.Sets,
		Deletes: m.Deletes,
		Errors:  m.Errors,
	}
}

func (m *CacheMetrics) HitRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := m.Hits + m.Misses
	if total == 0 {
		return 0
	}
	return float64(m.Hits) / float64(total)
}

func (m *CacheMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Hits = 0
	m.Misses = 0
	m.Sets = 0
	m.Deletes = 0
	m.Errors = 0
}
