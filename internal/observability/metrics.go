package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Authentication outcomes recorded by AuthMetrics
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuthMetrics counts authentication attempts and authorization denials.
// A nil *AuthMetrics is valid and records nothing.
type AuthMetrics struct {
	registry *prometheus.Registry
	attempts *prometheus.CounterVec
	denials  *prometheus.CounterVec
}

// NewAuthMetrics registers the auth counters on a fresh registry
func NewAuthMetrics() *AuthMetrics {
	m := &AuthMetrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socialhub",
			Name:      "auth_attempts_total",
			Help:      "Authentication attempts by audience and outcome.",
		}, []string{"audience", "outcome"}),
		denials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "socialhub",
			Name:      "authz_denials_total",
			Help:      "Authorization denials by gate and error code.",
		}, []string{"gate", "code"}),
	}
	m.registry.MustRegister(m.attempts, m.denials)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

// RecordAttempt counts one authentication decision
func (m *AuthMetrics) RecordAttempt(audience, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(audience, outcome).Inc()
}

// RecordDenial counts one gate denial
func (m *AuthMetrics) RecordDenial(gate, code string) {
	if m == nil {
		return
	}
	m.denials.WithLabelValues(gate, code).Inc()
}

// Registry exposes the underlying registry
func (m *AuthMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *AuthMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
