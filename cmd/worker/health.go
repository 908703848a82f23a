package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/felixgeelhaar/cadence/internal/app"
	"github.com/felixgeelhaar/cadence/pkg/observability"
)

const healthCheckTimeout = 2 * time.Second

// newHealthMux serves liveness, readiness and Prometheus metrics for the worker.
func newHealthMux(container *app.Container, metrics *observability.PrometheusMetrics) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"status":  "ok",
			"user_id": container.UserID,
		}
		if container.OutboxProcessor != nil {
			stats := container.OutboxProcessor.GetStats()
			response["outbox"] = map[string]any{
				"running":           stats.IsRunning,
				"published":         stats.PublishedCount,
				"failed":            stats.FailedCount,
				"dead":              stats.DeadCount,
				"lag_seconds":       stats.LagSeconds,
				"last_processed_at": stats.LastProcessedAt,
				"last_error_at":     stats.LastErrorAt,
				"last_error":        stats.LastError,
			}
		}
		if container.Dispatcher != nil {
			response["dispatch_pending"] = container.Dispatcher.Pending()
		}
		writeJSON(w, http.StatusOK, response)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		health := container.Health.GetOverallHealth(checkCtx)
		status := http.StatusOK
		if health.Status == observability.HealthStatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
