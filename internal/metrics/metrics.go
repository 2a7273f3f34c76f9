package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Transitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_transitions_total",
			Help: "Committed state transitions by entity",
		},
		[]string{"entity", "from", "to"},
	)

	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_operation_errors_total",
			Help: "Failed marketplace operations by error kind",
		},
		[]string{"operation", "kind"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func ObserveTransition(entity, from, to string) {
	Transitions.WithLabelValues(entity, from, to).Inc()
}

func ObserveError(operation, kind string) {
	OperationErrors.WithLabelValues(operation, kind).Inc()
}
