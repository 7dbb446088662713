package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SchedulesCreated     uint64
	SchedulesUpdated     uint64
	SchedulesDeleted     uint64
	UsersResolved        map[string]uint64
	CacheHits            map[string]uint64
	CacheMisses          map[string]uint64
	DBReconnects         uint64
	DBRetries            map[string]uint64
	WriteDurationCount   uint64
	WriteDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	schedulesCreated     uint64
	schedulesUpdated     uint64
	schedulesDeleted     uint64
	dbReconnects         uint64
	writeDurationCount   uint64
	writeDurationTotalNs int64

	mu            sync.Mutex
	usersResolved map[string]uint64
	cacheHits     map[string]uint64
	cacheMisses   map[string]uint64
	dbRetries     map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		usersResolved: make(map[string]uint64),
		cacheHits:     make(map[string]uint64),
		cacheMisses:   make(map[string]uint64),
		dbRetries:     make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		SchedulesCreated:     atomic.LoadUint64(&m.schedulesCreated),
		SchedulesUpdated:     atomic.LoadUint64(&m.schedulesUpdated),
		SchedulesDeleted:     atomic.LoadUint64(&m.schedulesDeleted),
		UsersResolved:        copyCounts(m.usersResolved),
		CacheHits:            copyCounts(m.cacheHits),
		CacheMisses:          copyCounts(m.cacheMisses),
		DBReconnects:         atomic.LoadUint64(&m.dbReconnects),
		DBRetries:            copyCounts(m.dbRetries),
		WriteDurationCount:   atomic.LoadUint64(&m.writeDurationCount),
		WriteDurationTotalNs: atomic.LoadInt64(&m.writeDurationTotalNs),
	}
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// IncScheduleCreated increments the schedule created counter.
func (m *InMemoryRecorder) IncScheduleCreated() {
	atomic.AddUint64(&m.schedulesCreated, 1)
}

// IncScheduleUpdated increments the schedule updated counter.
func (m *InMemoryRecorder) IncScheduleUpdated() {
	atomic.AddUint64(&m.schedulesUpdated, 1)
}

// IncScheduleDeleted increments the schedule deleted counter.
func (m *InMemoryRecorder) IncScheduleDeleted() {
	atomic.AddUint64(&m.schedulesDeleted, 1)
}

// IncUserResolved increments the per-outcome user resolution counter.
func (m *InMemoryRecorder) IncUserResolved(outcome string) {
	m.mu.Lock()
	m.usersResolved[outcome]++
	m.mu.Unlock()
}

// IncCacheHit increments the per-kind cache hit counter.
func (m *InMemoryRecorder) IncCacheHit(kind string) {
	m.mu.Lock()
	m.cacheHits[kind]++
	m.mu.Unlock()
}

// IncCacheMiss increments the per-kind cache miss counter.
func (m *InMemoryRecorder) IncCacheMiss(kind string) {
	m.mu.Lock()
	m.cacheMisses[kind]++
	m.mu.Unlock()
}

// IncDBReconnect increments the reconnect counter.
func (m *InMemoryRecorder) IncDBReconnect() {
	atomic.AddUint64(&m.dbReconnects, 1)
}

// IncDBRetry increments the per-operation retry counter.
func (m *InMemoryRecorder) IncDBRetry(operation string) {
	m.mu.Lock()
	m.dbRetries[operation]++
	m.mu.Unlock()
}

// ObserveWriteDuration records a write duration.
func (m *InMemoryRecorder) ObserveWriteDuration(operation string, duration time.Duration) {
	atomic.AddUint64(&m.writeDurationCount, 1)
	atomic.AddInt64(&m.writeDurationTotalNs, duration.Nanoseconds())
}
