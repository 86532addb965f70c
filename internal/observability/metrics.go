package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "daf"

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	// TransitionsTotal counts lifecycle transitions.
	// Labels: op (claim, return, complete, draft), outcome (ok, rejected, not_found, error)
	TransitionsTotal *prometheus.CounterVec

	// LogEmissionsTotal counts activity log writes after a claim.
	// Labels: outcome (ok, error)
	LogEmissionsTotal *prometheus.CounterVec

	// BulkClaimSize is the number of pages requested per bulk claim.
	BulkClaimSize prometheus.Histogram

	// HTTPRequestsTotal counts REST requests.
	// Labels: method, route (chi route pattern), code
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "lifecycle",
			Name:      "transitions_total",
			Help:      "Page lifecycle transitions by operation and outcome",
		}, []string{"op", "outcome"}),
		LogEmissionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "activity",
			Name:      "log_emissions_total",
			Help:      "Activity log writes following a claim, by outcome",
		}, []string{"outcome"}),
		BulkClaimSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "lifecycle",
			Name:      "bulk_claim_size",
			Help:      "Pages requested per bulk claim",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "REST requests by method, route and status code",
		}, []string{"method", "route", "code"}),
	}
}

// ObserveTransition records a lifecycle transition outcome.
func (m *Metrics) ObserveTransition(op, outcome string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(op, outcome).Inc()
}

// ObserveEmission records a log emission outcome.
func (m *Metrics) ObserveEmission(outcome string) {
	if m == nil {
		return
	}
	m.LogEmissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveBulkClaim records the size of a bulk claim request.
func (m *Metrics) ObserveBulkClaim(size int) {
	if m == nil {
		return
	}
	m.BulkClaimSize.Observe(float64(size))
}

// ObserveRequest records a served REST request.
func (m *Metrics) ObserveRequest(method, route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}
