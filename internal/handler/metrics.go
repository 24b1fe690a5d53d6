package handler

import (
	"fmt"
	"net/http"

	"github.com/zerotodo/zerotodo/internal/metrics"
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

	writeMetric(w, "zerotodo_users_created_total %d\n", snap.UsersCreated)
	writeMetric(w, "zerotodo_users_updated_total %d\n", snap.UsersUpdated)
	writeMetric(w, "zerotodo_users_deleted_total %d\n", snap.UsersDeleted)

	writeMetric(w, "zerotodo_todos_created_total %d\n", snap.TodosCreated)
	writeMetric(w, "zerotodo_todos_updated_total %d\n", snap.TodosUpdated)
	writeMetric(w, "zerotodo_todos_deleted_total %d\n", snap.TodosDeleted)

	writeMetric(w, "zerotodo_tokens_issued_total{kind=\"login\"} %d\n", snap.TokensIssuedLogin)
	writeMetric(w, "zerotodo_tokens_issued_total{kind=\"refresh\"} %d\n", snap.TokensIssuedRefresh)

	writeMetric(w, "zerotodo_auth_failures_total{reason=\"credentials\"} %d\n", snap.AuthFailuresCredentials)
	writeMetric(w, "zerotodo_auth_failures_total{reason=\"token\"} %d\n", snap.AuthFailuresToken)
	writeMetric(w, "zerotodo_auth_failures_total{reason=\"rate_limited\"} %d\n", snap.AuthFailuresRateLimited)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
