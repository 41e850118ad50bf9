// Package middleware provides cross-cutting concerns for the ensemble
// prediction pipeline.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matchsight/ensemble/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of prediction throughput,
// conflict rates, and per-unit execution latency.
type PrometheusMetrics struct {
	predictionsTotal *prometheus.CounterVec
	conflictsTotal   *prometheus.CounterVec
	executionLatency *prometheus.HistogramVec
	counters         *prometheus.CounterVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all metrics with the provided registerer. Pass
// prometheus.DefaultRegisterer for the global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		predictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ensemble_predictions_total",
				Help: "Total number of ensemble predictions, labeled by outcome status.",
			},
			[]string{"status"},
		),
		conflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ensemble_conflicts_total",
				Help: "Total number of detected model conflicts, labeled by severity.",
			},
			[]string{"severity"},
		),
		executionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ensemble_unit_duration_seconds",
				Help:    "Execution time of individual aggregation units.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "unit"},
		),
		counters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ensemble_operations_total",
				Help: "Generic operation counters emitted by the pipeline.",
			},
			[]string{"metric", "unit"},
		),
	}

	reg.MustRegister(pm.predictionsTotal, pm.conflictsTotal, pm.executionLatency, pm.counters)
	return pm
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	unit, ok := labels["unit"]
	if !ok {
		unit = "unknown"
	}
	pm.executionLatency.WithLabelValues(operation, unit).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. The metrics "predictions_total" and
// "conflicts_total" map onto their dedicated counters; everything else
// lands in the generic operations counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "predictions_total":
		status, ok := labels["status"]
		if !ok {
			status = "unknown"
		}
		pm.predictionsTotal.WithLabelValues(status).Add(value)
	case "conflicts_total":
		severity, ok := labels["severity"]
		if !ok {
			severity = "unknown"
		}
		pm.conflictsTotal.WithLabelValues(severity).Add(value)
	default:
		unit, ok := labels["unit"]
		if !ok {
			unit = "unknown"
		}
		pm.counters.WithLabelValues(metric, unit).Add(value)
	}
}
