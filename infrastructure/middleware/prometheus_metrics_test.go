package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics(t *testing.T) *PrometheusMetrics {
	t.Helper()
	return NewPrometheusMetrics(prometheus.NewRegistry())
}

func TestPrometheusMetrics_RecordCounterPredictions(t *testing.T) {
	pm := newTestMetrics(t)

	pm.RecordCounter("predictions_total", 1, map[string]string{"status": "ok"})
	pm.RecordCounter("predictions_total", 1, map[string]string{"status": "ok"})
	pm.RecordCounter("predictions_total", 1, map[string]string{"status": "error"})

	assert.Equal(t, 2.0, testutil.ToFloat64(pm.predictionsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.predictionsTotal.WithLabelValues("error")))
}

func TestPrometheusMetrics_RecordCounterConflicts(t *testing.T) {
	pm := newTestMetrics(t)

	pm.RecordCounter("conflicts_total", 1, map[string]string{"severity": "high"})

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.conflictsTotal.WithLabelValues("high")))
	assert.Equal(t, 0.0, testutil.ToFloat64(pm.conflictsTotal.WithLabelValues("low")))
}

func TestPrometheusMetrics_RecordCounterGeneric(t *testing.T) {
	pm := newTestMetrics(t)

	pm.RecordCounter("cache_hits", 3, map[string]string{"unit": "weights"})
	pm.RecordCounter("cache_hits", 1, nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(pm.counters.WithLabelValues("cache_hits", "weights")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.counters.WithLabelValues("cache_hits", "unknown")))
}

func TestPrometheusMetrics_RecordCounterMissingLabels(t *testing.T) {
	pm := newTestMetrics(t)

	pm.RecordCounter("predictions_total", 1, nil)
	pm.RecordCounter("conflicts_total", 1, map[string]string{})

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.predictionsTotal.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.conflictsTotal.WithLabelValues("unknown")))
}

func TestPrometheusMetrics_RecordLatency(t *testing.T) {
	pm := newTestMetrics(t)

	pm.RecordLatency("unit_execution", 25*time.Millisecond, map[string]string{"unit": "votes"})

	count := testutil.CollectAndCount(pm.executionLatency)
	require.Equal(t, 1, count)
}
