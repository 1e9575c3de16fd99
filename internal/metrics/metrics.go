// Package metrics exposes scan and verify counters for Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build independent instances.
// All methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal       *prometheus.CounterVec
	ScanDuration     prometheus.Histogram
	ItemsTotal       *prometheus.CounterVec
	ProviderFailures *prometheus.CounterVec
	Severity         *prometheus.HistogramVec
	StoreFailures    prometheus.Counter
	VerifyTotal      *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ScansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gorescanner_scans_total",
				Help: "Total number of scans by outcome.",
			},
			[]string{"status"},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gorescanner_scan_duration_seconds",
				Help:    "Duration of scans.",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
		),
		ItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gorescanner_items_total",
				Help: "Scored items kept by scans.",
			},
			[]string{"media_type"},
		),
		ProviderFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gorescanner_provider_failures_total",
				Help: "Provider searches that failed.",
			},
			[]string{"provider"},
		),
		Severity: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gorescanner_item_severity",
				Help:    "Distribution of clamped severity scores.",
				Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			},
			[]string{"media_type"},
		),
		StoreFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gorescanner_store_failures_total",
				Help: "Item writes that failed.",
			},
		),
		VerifyTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gorescanner_verify_total",
				Help: "Verified URLs by result.",
			},
			[]string{"result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gorescanner_http_requests_total",
				Help: "Total number of API requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gorescanner_http_request_duration_seconds",
				Help:    "Duration of API requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	reg.MustRegister(
		m.ScansTotal,
		m.ScanDuration,
		m.ItemsTotal,
		m.ProviderFailures,
		m.Severity,
		m.StoreFailures,
		m.VerifyTotal,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveScan records a finished scan.
func (m *Metrics) ObserveScan(status string, seconds float64) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(status).Inc()
	m.ScanDuration.Observe(seconds)
}

// ObserveItem records one kept item.
func (m *Metrics) ObserveItem(mediaType string, severity float64) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(mediaType).Inc()
	m.Severity.WithLabelValues(mediaType).Observe(severity)
}

// ProviderFailed counts a failed provider search.
func (m *Metrics) ProviderFailed(provider string) {
	if m == nil {
		return
	}
	m.ProviderFailures.WithLabelValues(provider).Inc()
}

// StoreFailed counts a failed item write.
func (m *Metrics) StoreFailed() {
	if m == nil {
		return
	}
	m.StoreFailures.Inc()
}

// ObserveVerify records a verify outcome: flagged, clean or error.
func (m *Metrics) ObserveVerify(result string) {
	if m == nil {
		return
	}
	m.VerifyTotal.WithLabelValues(result).Inc()
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(method, path string, status int, seconds float64) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.HTTPRequests.WithLabelValues(method, path, code).Inc()
	m.HTTPDuration.WithLabelValues(method, path, code).Observe(seconds)
}
