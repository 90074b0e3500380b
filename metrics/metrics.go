// ABOUTME: Prometheus metrics for the HTTP API and the reminder sweep
// ABOUTME: Registered on the default registry and exposed at /metrics
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prm_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route", "status"},
	)

	SweepRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prm_sweep_runs_total",
			Help: "Reminder sweeps by outcome",
		},
		[]string{"outcome"}, // ok, failed
	)

	SweepReminders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "prm_sweep_overdue_reminders",
			Help: "Overdue reminders found by the last sweep",
		},
	)

	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prm_notifications_total",
			Help: "Push notifications by result",
		},
		[]string{"result"}, // sent, failed, pruned
	)

	PipelineMoves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prm_pipeline_moves_total",
			Help: "Product status moves by outcome",
		},
		[]string{"outcome"}, // ok, conflict, failed
	)
)

// ObserveHTTP records one request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
