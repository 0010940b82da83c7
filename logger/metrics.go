package logger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics exposed on /metrics.
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_engine_requests_total",
		Help: "Processed transcript requests by outcome.",
	}, []string{"outcome"})

	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_engine_request_duration_seconds",
		Help:    "End-to-end request processing duration.",
		Buckets: prometheus.DefBuckets,
	})

	RepairAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_engine_repair_attempts_total",
		Help: "Repair attempts issued by kind (json or schema).",
	}, []string{"kind"})

	NormalizedValuesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcript_engine_normalized_values_total",
		Help: "Enum values rewritten by the soft normalizer.",
	})

	ValidationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcript_engine_validation_failures_total",
		Help: "Schema validation passes that produced errors.",
	})

	TransportCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transcript_engine_transport_calls_total",
		Help: "Model transport attempts by result.",
	}, []string{"result"})

	TransportRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcript_engine_transport_retries_total",
		Help: "Transport attempts retried after a transient failure.",
	})

	TransportCallDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transcript_engine_transport_call_duration_seconds",
		Help:    "Latency of individual model transport attempts.",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)
