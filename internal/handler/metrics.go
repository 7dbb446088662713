package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/timetably/timetably/internal/metrics"
)

// MetricsHandler exposes in-memory metrics in Prometheus exposition
// format. Used when the server runs without a Prometheus registry.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "timetably_schedules_created_total %d\n", snap.SchedulesCreated)
	writeMetric(w, "timetably_schedules_updated_total %d\n", snap.SchedulesUpdated)
	writeMetric(w, "timetably_schedules_deleted_total %d\n", snap.SchedulesDeleted)

	writeLabeled(w, "timetably_users_resolved_total", "outcome", snap.UsersResolved)
	writeLabeled(w, "timetably_cache_hits_total", "kind", snap.CacheHits)
	writeLabeled(w, "timetably_cache_misses_total", "kind", snap.CacheMisses)

	writeMetric(w, "timetably_db_reconnects_total %d\n", snap.DBReconnects)
	writeLabeled(w, "timetably_db_retries_total", "operation", snap.DBRetries)

	writeMetric(w, "timetably_write_duration_seconds_count %d\n", snap.WriteDurationCount)
	writeMetric(w, "timetably_write_duration_seconds_sum %.6f\n", float64(snap.WriteDurationTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func writeLabeled(w http.ResponseWriter, name, label string, values map[string]uint64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}
