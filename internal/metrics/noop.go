package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncScheduleCreated is a no-op.
func (n *NoopRecorder) IncScheduleCreated() {}

// IncScheduleUpdated is a no-op.
func (n *NoopRecorder) IncScheduleUpdated() {}

// IncScheduleDeleted is a no-op.
func (n *NoopRecorder) IncScheduleDeleted() {}

// IncUserResolved is a no-op.
func (n *NoopRecorder) IncUserResolved(outcome string) {}

// IncCacheHit is a no-op.
func (n *NoopRecorder) IncCacheHit(kind string) {}

// IncCacheMiss is a no-op.
func (n *NoopRecorder) IncCacheMiss(kind string) {}

// IncDBReconnect is a no-op.
func (n *NoopRecorder) IncDBReconnect() {}

// IncDBRetry is a no-op.
func (n *NoopRecorder) IncDBRetry(operation string) {}

// ObserveWriteDuration is a no-op.
func (n *NoopRecorder) ObserveWriteDuration(operation string, duration time.Duration) {}
