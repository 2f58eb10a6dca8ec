package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Component names are unique per test: the metrics land in the default
// registry, and promauto panics on a duplicate registration.

func TestNewConfigMetrics_AllCollectorsInitialized(t *testing.T) {
	metrics := NewConfigMetrics("cfgtest_init")

	assert.NotNil(t, metrics.LoadTimestamp)
	assert.NotNil(t, metrics.ValidationErrorsTotal)
	assert.NotNil(t, metrics.FallbacksTotal)
	assert.NotNil(t, metrics.FallbackActive)
	assert.Equal(t, "cfgtest_init", metrics.componentName)
}

func TestNewConfigMetrics_ComponentsDoNotCollide(t *testing.T) {
	// The worker and the API both load the pipeline configuration; their
	// prefixes keep the collectors apart in the shared registry.
	workerMetrics := NewConfigMetrics("cfgtest_worker")
	apiMetrics := NewConfigMetrics("cfgtest_api")

	workerMetrics.RecordValidationError("cron_schedule")

	assert.Equal(t, float64(1),
		testutil.ToFloat64(workerMetrics.ValidationErrorsTotal.WithLabelValues("cron_schedule")))
	assert.Equal(t, float64(0),
		testutil.ToFloat64(apiMetrics.ValidationErrorsTotal.WithLabelValues("cron_schedule")))
}

func TestRecordLoadTimestamp(t *testing.T) {
	metrics := NewConfigMetrics("cfgtest_load")

	metrics.RecordLoadTimestamp()

	assert.Greater(t, testutil.ToFloat64(metrics.LoadTimestamp), float64(0))
}

func TestRecordValidationError_CountsPerField(t *testing.T) {
	metrics := NewConfigMetrics("cfgtest_validation")

	metrics.RecordValidationError("cron_schedule")
	metrics.RecordValidationError("drift_threshold")
	metrics.RecordValidationError("cron_schedule")

	assert.Equal(t, float64(2),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("cron_schedule")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("drift_threshold")))
}

func TestRecordFallback_CountsPerField(t *testing.T) {
	metrics := NewConfigMetrics("cfgtest_fallback")

	metrics.RecordFallback("top_k", "default")
	metrics.RecordFallback("top_k", "default")
	metrics.RecordFallback("min_score", "default")

	assert.Equal(t, float64(2),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("top_k")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("min_score")))
}

func TestSetFallbackActive(t *testing.T) {
	metrics := NewConfigMetrics("cfgtest_active")

	metrics.SetFallbackActive("any", true)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))

	metrics.SetFallbackActive("any", false)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
}

func TestConfigMetrics_DegradedLoadScenario(t *testing.T) {
	// The shape LoadPipelineConfig produces when a deploy ships two bad
	// values: per-field counters plus the degraded gauge.
	metrics := NewConfigMetrics("cfgtest_degraded")

	metrics.RecordLoadTimestamp()
	for _, field := range []string{"cron_schedule", "source_parallelism"} {
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
	}
	metrics.SetFallbackActive("any", true)

	for _, field := range []string{"cron_schedule", "source_parallelism"} {
		assert.Equal(t, float64(1),
			testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues(field)), field)
		assert.Equal(t, float64(1),
			testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues(field)), field)
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
}

func TestConfigMetrics_CleanLoadScenario(t *testing.T) {
	metrics := NewConfigMetrics("cfgtest_clean")

	metrics.RecordLoadTimestamp()
	metrics.SetFallbackActive("any", false)

	assert.Equal(t, float64(0),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("cron_schedule")))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
}

func TestConfigMetrics_ConcurrentRecording(t *testing.T) {
	metrics := NewConfigMetrics("cfgtest_concurrent")

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			metrics.RecordValidationError("timezone")
			metrics.RecordFallback("timezone", "default")
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	assert.Equal(t, float64(10),
		testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("timezone")))
	assert.Equal(t, float64(10),
		testutil.ToFloat64(metrics.FallbacksTotal.WithLabelValues("timezone")))
}
