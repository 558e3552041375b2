// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// CRUD pipeline metrics, labelled by resource name
	IncEntityCreated(resource string)
	IncEntityUpdated(resource string)
	IncEntityDeleted(resource string)
	IncEntityFailure(resource, kind string) // kind: "not_found", "conflict", "unauthorized"

	// Authentication metrics
	IncAuthFailure(reason string)
	IncPrincipalCacheHit()
	IncPrincipalCacheMiss()
	IncRateLimited()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
