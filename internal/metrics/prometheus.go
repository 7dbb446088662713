package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PromRecorder implements Recorder backed by Prometheus collectors.
type PromRecorder struct {
	schedulesCreated prometheus.Counter
	schedulesUpdated prometheus.Counter
	schedulesDeleted prometheus.Counter
	usersResolved    *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	dbReconnects     prometheus.Counter
	dbRetries        *prometheus.CounterVec
	writeDuration    *prometheus.HistogramVec
}

// NewPrometheus returns a Recorder registering its collectors with reg.
// Pass prometheus.DefaultRegisterer for the standard /metrics endpoint.
func NewPrometheus(reg prometheus.Registerer) *PromRecorder {
	factory := promauto.With(reg)
	return &PromRecorder{
		schedulesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "timetably_schedules_created_total",
			Help: "Number of schedules created.",
		}),
		schedulesUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "timetably_schedules_updated_total",
			Help: "Number of schedules updated.",
		}),
		schedulesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "timetably_schedules_deleted_total",
			Help: "Number of schedules deleted.",
		}),
		usersResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "timetably_users_resolved_total",
			Help: "Number of user resolutions by outcome.",
		}, []string{"outcome"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "timetably_cache_hits_total",
			Help: "Number of cache hits by kind.",
		}, []string{"kind"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "timetably_cache_misses_total",
			Help: "Number of cache misses by kind.",
		}, []string{"kind"}),
		dbReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "timetably_db_reconnects_total",
			Help: "Number of database pool reconnects.",
		}),
		dbRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "timetably_db_retries_total",
			Help: "Number of database operation retries by operation.",
		}, []string{"operation"}),
		writeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name: "timetably_write_duration_seconds",
			Help: "Duration of transactional writes.",
			// Wide buckets: a write stalled behind a resuming store can
			// legitimately take tens of seconds.
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 2, 10, 30, 60},
		}, []string{"operation"}),
	}
}

// IncScheduleCreated increments the schedule created counter.
func (p *PromRecorder) IncScheduleCreated() { p.schedulesCreated.Inc() }

// IncScheduleUpdated increments the schedule updated counter.
func (p *PromRecorder) IncScheduleUpdated() { p.schedulesUpdated.Inc() }

// IncScheduleDeleted increments the schedule deleted counter.
func (p *PromRecorder) IncScheduleDeleted() { p.schedulesDeleted.Inc() }

// IncUserResolved increments the per-outcome user resolution counter.
func (p *PromRecorder) IncUserResolved(outcome string) {
	p.usersResolved.WithLabelValues(outcome).Inc()
}

// IncCacheHit increments the per-kind cache hit counter.
func (p *PromRecorder) IncCacheHit(kind string) {
	p.cacheHits.WithLabelValues(kind).Inc()
}

// IncCacheMiss increments the per-kind cache miss counter.
func (p *PromRecorder) IncCacheMiss(kind string) {
	p.cacheMisses.WithLabelValues(kind).Inc()
}

// IncDBReconnect increments the reconnect counter.
func (p *PromRecorder) IncDBReconnect() { p.dbReconnects.Inc() }

// IncDBRetry increments the per-operation retry counter.
func (p *PromRecorder) IncDBRetry(operation string) {
	p.dbRetries.WithLabelValues(operation).Inc()
}

// ObserveWriteDuration records a write duration.
func (p *PromRecorder) ObserveWriteDuration(operation string, duration time.Duration) {
	p.writeDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
