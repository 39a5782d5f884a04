package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbird_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// BackendRequestLatency records backend API request latency.
	BackendRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedbird_backend_request_latency_seconds",
		Help:    "Backend API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "resource"})

	// BackendRequestErrors counts non-2xx backend API responses.
	BackendRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbird_backend_request_errors_total",
		Help: "Total number of backend API error responses",
	}, []string{"method", "resource", "status"})

	// LifecycleTransitions counts state machine transitions by edge.
	LifecycleTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbird_lifecycle_transitions_total",
		Help: "Total number of post status transitions",
	}, []string{"from", "to"})

	// PublishAttempts counts per-page publish attempts by platform and outcome.
	PublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbird_publish_attempts_total",
		Help: "Total number of per-page publish attempts",
	}, []string{"platform", "outcome"})

	// PublishDuration records end-to-end publish pipeline duration.
	PublishDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedbird_publish_duration_seconds",
		Help:    "End-to-end publish pipeline duration in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})

	// ReconcileCorrections counts silent status corrections made by the
	// time reconciler.
	ReconcileCorrections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbird_reconcile_corrections_total",
		Help: "Total number of silent status corrections",
	}, []string{"from", "to"})

	// ReconcileSweeps counts reconciler sweep runs.
	ReconcileSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedbird_reconcile_sweeps_total",
		Help: "Total number of reconciler sweeps",
	})

	// MediaUploads counts media materializations by kind and outcome.
	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbird_media_uploads_total",
		Help: "Total number of media materializations",
	}, []string{"kind", "outcome"})
)

// BackendMetrics wraps backend API access for recording request latency.
type BackendMetrics struct{}

// NewBackendMetrics returns a new BackendMetrics instance.
func NewBackendMetrics() *BackendMetrics {
	return &BackendMetrics{}
}

// TrackRequest returns a function that records request latency when called
// (e.g. defer).
func (m *BackendMetrics) TrackRequest(method, resource string) func() {
	start := time.Now()
	return func() {
		BackendRequestLatency.WithLabelValues(method, resource).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition increments the transition counter for one status edge.
func RecordTransition(from, to string) {
	LifecycleTransitions.WithLabelValues(from, to).Inc()
}
