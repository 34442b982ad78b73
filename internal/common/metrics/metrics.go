// internal/common/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_requests_total",
			Help: "Total number of requests sent to the canteen backend",
		},
		[]string{"operation", "method", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Duration of backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	BackendRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "backend_requests_in_flight",
			Help: "Number of backend requests currently in flight",
		},
	)

	MenuSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menu_save_total",
			Help: "Weekly menu save attempts by mode and final state",
		},
		[]string{"mode", "state"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
