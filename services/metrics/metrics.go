// Package metrics holds the prometheus collectors exposed on the debug listener.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/syllabix/syllabix/core/cluster"
)

const namespace = "syllabix"

type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPDurationSeconds *prometheus.HistogramVec

	// sharing operations: membership, visibility, adoption
	SharingChangesTotal *prometheus.CounterVec
}

var _ cluster.Observer = (*Metrics)(nil)

// New registers every collector on registry, along with the go and process collectors.
func New(registry *prometheus.Registry) *Metrics {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Metrics{
		Registry: registry,

		HTTPRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),

		HTTPDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and route",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),

		SharingChangesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sharing_changes_total",
				Help:      "Total number of cluster sharing changes by operation, item kind and mode",
			},
			[]string{"operation", "kind", "mode"},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, route, status string, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPDurationSeconds.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) SharingChanged(operation, kind, mode string) {
	if kind == "" {
		kind = "none"
	}
	m.SharingChangesTotal.WithLabelValues(operation, kind, mode).Inc()
}
