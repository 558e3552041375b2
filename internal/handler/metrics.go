package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/niolikon/taskboard/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
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

	writeLabelled(w, "taskboard_entities_created_total", "resource", snap.EntitiesCreated)
	writeLabelled(w, "taskboard_entities_updated_total", "resource", snap.EntitiesUpdated)
	writeLabelled(w, "taskboard_entities_deleted_total", "resource", snap.EntitiesDeleted)

	failures := make([]metrics.FailureKey, 0, len(snap.EntityFailures))
	for key := range snap.EntityFailures {
		failures = append(failures, key)
	}
	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Resource != failures[j].Resource {
			return failures[i].Resource < failures[j].Resource
		}
		return failures[i].Kind < failures[j].Kind
	})
	for _, key := range failures {
		writeMetric(w, "taskboard_entity_failures_total{resource=%q,kind=%q} %d\n", key.Resource, key.Kind, snap.EntityFailures[key])
	}

	writeLabelled(w, "taskboard_auth_failures_total", "reason", snap.AuthFailures)
	writeMetric(w, "taskboard_principal_cache_hits_total %d\n", snap.PrincipalCacheHits)
	writeMetric(w, "taskboard_principal_cache_misses_total %d\n", snap.PrincipalCacheMisses)
	writeMetric(w, "taskboard_rate_limited_total %d\n", snap.RateLimited)
}

func writeLabelled(w http.ResponseWriter, name, label string, counts map[string]uint64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, counts[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
