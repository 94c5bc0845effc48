package metrics

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	// Initialize the registry
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordPrediction(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordPrediction("calibrated", 0.02)
	})
	assert.NotPanics(t, func() {
		RecordPrediction("heuristic", 0.01)
	})
}

func TestRecordCacheEvents(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordCacheHit()
		RecordCacheMiss()
	})
}

func TestUpdateActiveModel(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name      string
		modelType string
		version   string
	}{
		{
			name:      "first promotion",
			modelType: "dixon_coles",
			version:   "20250801-120000",
		},
		{
			name:      "replacement resets the previous series",
			modelType: "dixon_coles",
			version:   "20250815-090000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateActiveModel(tt.modelType, tt.version)
			})
		})
	}
}

func TestUpdateBlendAlpha(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name  string
		alpha float64
	}{
		{
			name:  "pure market",
			alpha: 0,
		},
		{
			name:  "default weight",
			alpha: 0.7,
		},
		{
			name:  "pure model",
			alpha: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateBlendAlpha(tt.alpha)
			})
		})
	}
}

func TestTrainingMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordTrainingRunStarted()
	})

	assert.NotPanics(t, func() {
		RecordTrainingRunFinished("active")
		RecordTrainingRunFinished("failed")
	})

	assert.NotPanics(t, func() {
		RecordTrainingDuration(42.5)
	})

	assert.NotPanics(t, func() {
		UpdateTrainingFit(17, true)
		UpdateTrainingFit(64, false)
	})

	assert.NotPanics(t, func() {
		RecordLikelihoodClamps(3)
		RecordLikelihoodClamps(0)
	})
}

func TestCalibrationPassThrough(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordCalibrationPassThrough("draw")
	})
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()

	handler := Handler()
	assert.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)
}

func BenchmarkRecordPrediction(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordPrediction("blended", 0.015)
	}
}

func BenchmarkRecordCacheHit(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordCacheHit()
	}
}
