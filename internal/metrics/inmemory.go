package metrics

import (
	"sync"
	"sync/atomic"
)

// FailureKey labels a CRUD failure counter.
type FailureKey struct {
	Resource string
	Kind     string
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	EntitiesCreated      map[string]uint64
	EntitiesUpdated      map[string]uint64
	EntitiesDeleted      map[string]uint64
	EntityFailures       map[FailureKey]uint64
	AuthFailures         map[string]uint64
	PrincipalCacheHits   uint64
	PrincipalCacheMisses uint64
	RateLimited          uint64
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	mu       sync.Mutex
	created  map[string]uint64
	updated  map[string]uint64
	deleted  map[string]uint64
	failures map[FailureKey]uint64
	authFail map[string]uint64

	principalCacheHits   uint64
	principalCacheMisses uint64
	rateLimited          uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		created:  make(map[string]uint64),
		updated:  make(map[string]uint64),
		deleted:  make(map[string]uint64),
		failures: make(map[FailureKey]uint64),
		authFail: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	failures := make(map[FailureKey]uint64, len(m.failures))
	for k, v := range m.failures {
		failures[k] = v
	}

	return Snapshot{
		EntitiesCreated:      copyCounts(m.created),
		EntitiesUpdated:      copyCounts(m.updated),
		EntitiesDeleted:      copyCounts(m.deleted),
		EntityFailures:       failures,
		AuthFailures:         copyCounts(m.authFail),
		PrincipalCacheHits:   atomic.LoadUint64(&m.principalCacheHits),
		PrincipalCacheMisses: atomic.LoadUint64(&m.principalCacheMisses),
		RateLimited:          atomic.LoadUint64(&m.rateLimited),
	}
}

// IncEntityCreated increments the created counter for resource.
func (m *InMemoryRecorder) IncEntityCreated(resource string) {
	m.inc(m.created, resource)
}

// IncEntityUpdated increments the updated counter for resource.
func (m *InMemoryRecorder) IncEntityUpdated(resource string) {
	m.inc(m.updated, resource)
}

// IncEntityDeleted increments the deleted counter for resource.
func (m *InMemoryRecorder) IncEntityDeleted(resource string) {
	m.inc(m.deleted, resource)
}

// IncEntityFailure increments the failure counter for resource and kind.
func (m *InMemoryRecorder) IncEntityFailure(resource, kind string) {
	m.mu.Lock()
	m.failures[FailureKey{Resource: resource, Kind: kind}]++
	m.mu.Unlock()
}

// IncAuthFailure increments the authentication failure counter.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	m.inc(m.authFail, reason)
}

// IncPrincipalCacheHit increments principal cache hit counter.
func (m *InMemoryRecorder) IncPrincipalCacheHit() {
	atomic.AddUint64(&m.principalCacheHits, 1)
}

// IncPrincipalCacheMiss increments principal cache miss counter.
func (m *InMemoryRecorder) IncPrincipalCacheMiss() {
	atomic.AddUint64(&m.principalCacheMisses, 1)
}

// IncRateLimited increments the rejected-by-rate-limit counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
