// Package metrics exposes process counters on a /metrics endpoint:
// command volume, catalog round-trip latency, and active interactive
// sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so tests never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal   *prometheus.CounterVec
	catalogDuration *prometheus.HistogramVec
	catalogErrors   *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bgman_commands_total",
			Help: "Slash command invocations by command name and outcome.",
		}, []string{"command", "status"}),
		catalogDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bgman_catalog_request_seconds",
			Help:    "BGG API round-trip latency by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		catalogErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bgman_catalog_errors_total",
			Help: "Failed BGG API round trips by operation.",
		}, []string{"op"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bgman_active_sessions",
			Help: "Wizards and viewers currently awaiting input.",
		}),
	}

	m.registry.MustRegister(m.commandsTotal, m.catalogDuration, m.catalogErrors, m.activeSessions)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordCommand counts one slash command invocation.
func (m *Metrics) RecordCommand(command, status string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(command, status).Inc()
}

// ObserveRequest implements catalog.Observer.
func (m *Metrics) ObserveRequest(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.catalogDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.catalogErrors.WithLabelValues(op).Inc()
	}
}

// SessionStarted marks one wizard or viewer as live.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionEnded marks one wizard or viewer as terminated.
func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
