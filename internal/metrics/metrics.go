// Package metrics provides Prometheus instrumentation for the connection layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cyclone"

// Metrics holds all the collectors. A nil *Metrics is valid and records nothing,
// which is handy for tests.
type Metrics struct {
	ActiveConnections prometheus.Gauge
	TotalConnections  prometheus.Counter
	RequestsTotal     *prometheus.CounterVec
	RequestBodySize   prometheus.Histogram
	ParseErrors       *prometheus.CounterVec
	KeepAlive         *prometheus.CounterVec
}

// New creates the collectors and registers them at the registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of currently open connections",
		}),
		TotalConnections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted connections",
		}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of dispatched requests",
		}, []string{"method", "protocol"}),
		RequestBodySize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_body_size_bytes",
			Help:      "Request body size in bytes",
			Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}),
		ParseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Total number of malformed requests and multipart parts",
		}, []string{"kind"}),
		KeepAlive: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keepalive_decisions_total",
			Help:      "Connection reuse decisions made after responses",
		}, []string{"decision"}),
	}
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}

	m.ActiveConnections.Inc()
	m.TotalConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}

	m.ActiveConnections.Dec()
}

func (m *Metrics) RequestDispatched(method, protocol string, bodySize int) {
	if m == nil {
		return
	}

	m.RequestsTotal.WithLabelValues(method, protocol).Inc()
	m.RequestBodySize.Observe(float64(bodySize))
}

func (m *Metrics) ParseError(kind string) {
	if m == nil {
		return
	}

	m.ParseErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) Reused(reuse bool) {
	if m == nil {
		return
	}

	decision := "close"
	if reuse {
		decision = "reuse"
	}

	m.KeepAlive.WithLabelValues(decision).Inc()
}
