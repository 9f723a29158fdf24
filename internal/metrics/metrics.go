// Package metrics exposes Prometheus counters for suppressed requests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gate's Prometheus collectors on a private registry.
type Metrics struct {
	decisionsTotal   *prometheus.CounterVec
	suppressedTotal  *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	fallbackNotFound prometheus.Counter
	policyFallbacks  *prometheus.CounterVec
	policyReloads    *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a metrics instance with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noisegate_decisions_total",
				Help: "Requests evaluated by entrypoint and action",
			},
			[]string{"entrypoint", "action"},
		),
		suppressedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noisegate_suppressed_total",
				Help: "Short-circuited requests by entrypoint, category and status",
			},
			[]string{"entrypoint", "category", "status"},
		),
		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "noisegate_decision_duration_seconds",
				Help:    "Time spent in the filter chain",
				Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
			},
			[]string{"entrypoint"},
		),
		fallbackNotFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "noisegate_api_fallback_not_found_total",
				Help: "API fallback requests answered with 404",
			},
		),
		policyFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noisegate_policy_fallbacks_total",
				Help: "Custom policy errors answered with the built-in decision",
			},
			[]string{"entrypoint"},
		),
		policyReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "noisegate_policy_reloads_total",
				Help: "Response policy reload attempts by status",
			},
			[]string{"status"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.decisionsTotal,
		m.suppressedTotal,
		m.decisionDuration,
		m.fallbackNotFound,
		m.policyFallbacks,
		m.policyReloads,
	)

	return m
}

// RecordDecision records one evaluated request.
func (m *Metrics) RecordDecision(entrypoint, action string, duration time.Duration) {
	m.decisionsTotal.WithLabelValues(entrypoint, action).Inc()
	m.decisionDuration.WithLabelValues(entrypoint).Observe(duration.Seconds())
}

// RecordSuppressed records a short-circuited request.
func (m *Metrics) RecordSuppressed(entrypoint, category string, status int) {
	m.suppressedTotal.WithLabelValues(entrypoint, category, strconv.Itoa(status)).Inc()
}

func (m *Metrics) RecordNotFound() {
	m.fallbackNotFound.Inc()
}

func (m *Metrics) RecordPolicyFallback(entrypoint string) {
	m.policyFallbacks.WithLabelValues(entrypoint).Inc()
}

// RecordPolicyReload records a reload attempt; err nil means success.
func (m *Metrics) RecordPolicyReload(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.policyReloads.WithLabelValues(status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
