package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "m8bizz"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	requests  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gatekeeper_decisions_total",
			Help:      "Route gatekeeper decisions by route kind and action.",
		}, []string{"kind", "action"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_refresh_total",
			Help:      "Session refresh attempts by outcome.",
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by method and status code.",
		}, []string{"method", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.decisions,
		m.refreshes,
		m.requests,
	)
	return m
}

func (m *Metrics) GatekeeperDecision(kind, action string) {
	m.decisions.WithLabelValues(kind, action).Inc()
}

func (m *Metrics) RefreshOutcome(outcome string) {
	m.refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) HTTPRequest(method string, code int) {
	m.requests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
