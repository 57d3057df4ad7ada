package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the payment-plan server.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics endpoint.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	planEdits       *prometheus.CounterVec
	plansSaved      prometheus.Counter
	validationFails *prometheus.CounterVec
	reportRequests  *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetrics creates a private registry and registers every metric in it, so
// repeated construction in tests never collides.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "payment_plan_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_plan_requests_total",
				Help: "Total HTTP requests by route and status class.",
			},
			[]string{"route", "status"},
		),
		planEdits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_plan_edits_total",
				Help: "Field edits applied to plans.",
			},
			[]string{"field"},
		),
		plansSaved: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payment_plan_saved_total",
				Help: "Plans persisted.",
			},
		),
		validationFails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_plan_validation_failures_total",
				Help: "Plans rejected by validation, by reason.",
			},
			[]string{"reason"},
		),
		reportRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_plan_report_requests_total",
				Help: "Calls to the report service by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		cacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payment_plan_cache_hits_total",
				Help: "Plan cache hits.",
			},
		),
		cacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "payment_plan_cache_misses_total",
				Help: "Plan cache misses.",
			},
		),
	}
}

// RecordRequest records the duration and status of an HTTP request.
func (m *Metrics) RecordRequest(route, status string, d time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
	m.requestsTotal.WithLabelValues(route, status).Inc()
}

// IncrEdit counts an edit of field.
func (m *Metrics) IncrEdit(field string) {
	m.planEdits.WithLabelValues(field).Inc()
}

// IncrSaved counts a persisted plan.
func (m *Metrics) IncrSaved() {
	m.plansSaved.Inc()
}

// IncrValidationFailure counts a plan rejected for reason.
func (m *Metrics) IncrValidationFailure(reason string) {
	m.validationFails.WithLabelValues(reason).Inc()
}

// IncrReport counts a report service call.
func (m *Metrics) IncrReport(operation, outcome string) {
	m.reportRequests.WithLabelValues(operation, outcome).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit() {
	m.cacheHits.Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss() {
	m.cacheMisses.Inc()
}
