// Package metrics provides Prometheus metrics for the nullfs mount.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results used as the "result" label.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nullfs_operations_total",
			Help: "Total number of filesystem operations",
		},
		[]string{"op", "result"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nullfs_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{.00001, .00005, .0001, .0005, .001, .005, .01},
		},
		[]string{"op"},
	)

	registryEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nullfs_registry_entries",
			Help: "Number of registered paths",
		},
		[]string{"kind"},
	)

	registryEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nullfs_registry_evictions_total",
			Help: "Paths dropped because their registry was full",
		},
		[]string{"kind"},
	)
)

// RecordOperation records one dispatched operation.
func RecordOperation(op string, err error, duration time.Duration) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	operationsTotal.WithLabelValues(op, result).Inc()
	operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SetRegistryEntries sets the number of registered paths of kind.
func SetRegistryEntries(kind string, n int) {
	registryEntries.WithLabelValues(kind).Set(float64(n))
}

// RecordEviction counts a path evicted from the registry of kind.
func RecordEviction(kind string) {
	registryEvictions.WithLabelValues(kind).Inc()
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewServer returns an HTTP server exposing Handler at /metrics on addr.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
