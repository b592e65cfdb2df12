package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the tutorial pipeline.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
	segmentsGeneratedTotal prometheus.Counter
	segmentsApprovedTotal  prometheus.Counter
	segmentsRejectedTotal  prometheus.Counter
	segmentsExecutedTotal  prometheus.Counter
	narrationFailuresTotal prometheus.Counter
	captureOpen            prometheus.Gauge
}

// New creates and registers Prometheus metrics for the tutorial pipeline.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutorial_status_requests_total",
		Help: "Total number of HTTP requests to the status endpoint",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutorial_status_errors_total",
		Help: "Total number of status endpoint responses with error status (4xx or 5xx)",
	})
	segmentsGeneratedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutorial_segments_generated_total",
		Help: "Total number of segments proposed by the generator",
	})
	segmentsApprovedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutorial_segments_approved_total",
		Help: "Total number of segments approved for capture",
	})
	segmentsRejectedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutorial_segments_rejected_total",
		Help: "Total number of segments rejected with feedback",
	})
	segmentsExecutedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutorial_segments_executed_total",
		Help: "Total number of segments captured and sealed",
	})
	narrationFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutorial_narration_failures_total",
		Help: "Total number of segments whose narration was dropped after the synthesis retry",
	})
	captureOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tutorial_capture_open",
		Help: "Number of open capture intervals (0 or 1 by invariant)",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		segmentsGeneratedTotal,
		segmentsApprovedTotal,
		segmentsRejectedTotal,
		segmentsExecutedTotal,
		narrationFailuresTotal,
		captureOpen,
	)

	return &Metrics{
		registry:               registry,
		requestsTotal:          requestsTotal,
		errorsTotal:            errorsTotal,
		segmentsGeneratedTotal: segmentsGeneratedTotal,
		segmentsApprovedTotal:  segmentsApprovedTotal,
		segmentsRejectedTotal:  segmentsRejectedTotal,
		segmentsExecutedTotal:  segmentsExecutedTotal,
		narrationFailuresTotal: narrationFailuresTotal,
		captureOpen:            captureOpen,
	}
}

// IncRequests increments the status request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the status error counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncSegmentsGenerated increments the generated segment counter.
func (m *Metrics) IncSegmentsGenerated() {
	m.segmentsGeneratedTotal.Inc()
}

// IncSegmentsApproved increments the approved segment counter.
func (m *Metrics) IncSegmentsApproved() {
	m.segmentsApprovedTotal.Inc()
}

// IncSegmentsRejected increments the rejected segment counter.
func (m *Metrics) IncSegmentsRejected() {
	m.segmentsRejectedTotal.Inc()
}

// IncSegmentsExecuted increments the executed segment counter.
func (m *Metrics) IncSegmentsExecuted() {
	m.segmentsExecutedTotal.Inc()
}

// IncNarrationFailures increments the dropped narration counter.
func (m *Metrics) IncNarrationFailures() {
	m.narrationFailuresTotal.Inc()
}

// SetCaptureOpen sets the open capture interval gauge.
func (m *Metrics) SetCaptureOpen(n int) {
	m.captureOpen.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values
// (e.g. the open capture interval count).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
