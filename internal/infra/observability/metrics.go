// Package observability provides Prometheus metrics for the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the service's Prometheus collectors.
// It implements adapter.MetricsRecorder.
type Metrics struct {
	AuthenticationsTotal    *prometheus.CounterVec
	AccountOperationsTotal  *prometheus.CounterVec
	SessionTransitionsTotal *prometheus.CounterVec
	EmailsTotal             *prometheus.CounterVec
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// NewMetrics creates the collectors and registers them on a fresh registry
// together with the Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWithRegistry(reg, reg)
}

// NewMetricsWithRegistry registers the collectors on reg and serves from gatherer.
func NewMetricsWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		AuthenticationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "useraccounts_authentications_total",
				Help: "Total number of credential checks by outcome",
			},
			[]string{"outcome"},
		),
		AccountOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "useraccounts_account_operations_total",
				Help: "Total number of account operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		SessionTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "useraccounts_session_transitions_total",
				Help: "Total number of session flow transitions by source and target state",
			},
			[]string{"from", "to"},
		),
		EmailsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "useraccounts_emails_total",
				Help: "Total number of email deliveries by template and status",
			},
			[]string{"template", "status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "useraccounts_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "useraccounts_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		gatherer: gatherer,
	}

	reg.MustRegister(
		m.AuthenticationsTotal,
		m.AccountOperationsTotal,
		m.SessionTransitionsTotal,
		m.EmailsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// RecordAuthentication counts a credential check.
func (m *Metrics) RecordAuthentication(outcome string) {
	m.AuthenticationsTotal.WithLabelValues(outcome).Inc()
}

// RecordAccountOperation counts a register, update or delete.
func (m *Metrics) RecordAccountOperation(operation, outcome string) {
	m.AccountOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordSessionTransition counts a flow state change.
func (m *Metrics) RecordSessionTransition(from, to string) {
	m.SessionTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordEmail counts a delivery attempt.
func (m *Metrics) RecordEmail(template, status string) {
	m.EmailsTotal.WithLabelValues(template, status).Inc()
}

// RecordHTTPRequest counts a served request and observes its latency.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
