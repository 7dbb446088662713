// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these via Prometheus or keep them in memory
// for tests.
type Recorder interface {
	// Schedule lifecycle metrics
	IncScheduleCreated()
	IncScheduleUpdated()
	IncScheduleDeleted()

	// User resolution metrics
	IncUserResolved(outcome string) // outcome: "existing" or "created"

	// Cache metrics
	IncCacheHit(kind string) // kind: "schedule", "user_schedules", "catalog"
	IncCacheMiss(kind string)

	// Database resilience metrics
	IncDBReconnect()
	IncDBRetry(operation string)
	ObserveWriteDuration(operation string, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
