package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the engine-level metrics exposed at /metrics.
type Metrics struct {
	// Query metrics
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Load cycle metrics
	LoadsTotal   *prometheus.CounterVec
	LoadDuration prometheus.Histogram

	// Graph snapshot metrics
	GraphNodes      prometheus.Gauge
	GraphEdges      prometheus.Gauge
	GraphGeneration prometheus.Gauge

	// Store and archive metrics
	StoreUp prometheus.Gauge

	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all engine metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "astrograph",
				Subsystem: "queries",
				Name:      "total",
				Help:      "Total number of queries by operation and outcome",
			},
			[]string{"operation", "status"},
		),

		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "astrograph",
				Subsystem: "queries",
				Name:      "duration_seconds",
				Help:      "Query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "astrograph",
				Subsystem: "load",
				Name:      "total",
				Help:      "Total number of bulk load cycles by outcome",
			},
			[]string{"status"},
		),

		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "astrograph",
				Subsystem: "load",
				Name:      "duration_seconds",
				Help:      "Bulk load cycle duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		GraphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "astrograph",
				Subsystem: "graph",
				Name:      "nodes",
				Help:      "Node count of the current graph snapshot",
			},
		),

		GraphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "astrograph",
				Subsystem: "graph",
				Name:      "edges",
				Help:      "Edge count of the current graph snapshot",
			},
		),

		GraphGeneration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "astrograph",
				Subsystem: "graph",
				Name:      "generation",
				Help:      "Generation counter of the current graph snapshot",
			},
		),

		StoreUp: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "astrograph",
				Subsystem: "store",
				Name:      "up",
				Help:      "Graph store reachability (0=unreachable, 1=reachable)",
			},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "astrograph",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors by component and kind",
			},
			[]string{"component", "kind"},
		),
	}
}

// RecordQuery increments the query counter and observes its duration.
func (m *Metrics) RecordQuery(operation, status string, duration time.Duration) {
	m.QueriesTotal.WithLabelValues(operation, status).Inc()
	m.QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordLoad records the outcome and duration of a load cycle.
func (m *Metrics) RecordLoad(status string, duration time.Duration) {
	m.LoadsTotal.WithLabelValues(status).Inc()
	m.LoadDuration.Observe(duration.Seconds())
}

// RecordSnapshot updates the graph snapshot gauges after a successful load.
func (m *Metrics) RecordSnapshot(generation uint64, nodes, edges int) {
	m.GraphGeneration.Set(float64(generation))
	m.GraphNodes.Set(float64(nodes))
	m.GraphEdges.Set(float64(edges))
}

// RecordStoreUp updates the store reachability gauge.
func (m *Metrics) RecordStoreUp(up bool) {
	value := 0.0
	if up {
		value = 1.0
	}
	m.StoreUp.Set(value)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, kind string) {
	m.ErrorsTotal.WithLabelValues(component, kind).Inc()
}
