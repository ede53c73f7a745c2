// Package observability exposes the process's Prometheus metrics.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for the realtime and storage layers.
type Metrics struct {
	registry *prometheus.Registry

	ActiveConnections  prometheus.Gauge
	ActiveRooms        prometheus.Gauge
	BroadcastsTotal    *prometheus.CounterVec
	SlowClientsDropped prometheus.Counter
	StorageOpDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers the application collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mindmap_ws_active_connections",
			Help: "Number of currently open WebSocket connections.",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mindmap_ws_active_rooms",
			Help: "Number of session rooms with at least one member.",
		}),
		BroadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mindmap_ws_broadcasts_total",
			Help: "Broadcast messages fanned out to room members, by event type.",
		}, []string{"event"}),
		SlowClientsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mindmap_ws_slow_clients_dropped_total",
			Help: "Connections torn down because their send buffer was full.",
		}),
		StorageOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mindmap_storage_op_duration_seconds",
			Help:    "Duration of persistence operations, by operation and outcome.",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ActiveConnections,
		m.ActiveRooms,
		m.BroadcastsTotal,
		m.SlowClientsDropped,
		m.StorageOpDuration,
	)
	return m
}

// ObserveStorageOp records one persistence operation.
func (m *Metrics) ObserveStorageOp(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.StorageOpDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
