// Package metrics provides centralized Prometheus metrics registry for the prediction service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goalodds",
		Name:      "predictions_total",
		Help:      "Total number of probability sets issued, by provenance",
	}, []string{"provenance"})
	PredictionErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalodds",
		Name:      "prediction_errors_total",
		Help:      "Total number of prediction requests that failed",
	})
	PredictionCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalodds",
		Name:      "prediction_cache_hits_total",
		Help:      "Total number of prediction cache hits",
	})
	PredictionCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalodds",
		Name:      "prediction_cache_misses_total",
		Help:      "Total number of prediction cache misses",
	})
	BlendFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalodds",
		Name:      "blend_fallbacks_total",
		Help:      "Total number of predictions served without market odds",
	})
)

// Gauge metrics
var (
	ActiveModelInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "goalodds",
		Name:      "active_model_info",
		Help:      "Set to 1 for the currently active artifact version of each model type",
	}, []string{"model_type", "version"})
	BlendAlpha = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goalodds",
		Name:      "blend_alpha",
		Help:      "Model weight of the active artifact's model-market blend",
	})
)

// Histogram metrics
var (
	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "goalodds",
		Name:      "prediction_duration_seconds",
		Help:      "Duration of single-fixture prediction requests in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register prediction metrics
		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(PredictionErrorsTotal)
		registry.MustRegister(PredictionCacheHitsTotal)
		registry.MustRegister(PredictionCacheMissesTotal)
		registry.MustRegister(BlendFallbacksTotal)

		// Register gauge metrics
		registry.MustRegister(ActiveModelInfo)
		registry.MustRegister(BlendAlpha)

		// Register histogram metrics
		registry.MustRegister(PredictionDuration)

		// Register training metrics
		registry.MustRegister(TrainingRunsStartedTotal)
		registry.MustRegister(TrainingRunsFinishedTotal)
		registry.MustRegister(TrainingDuration)
		registry.MustRegister(TrainingIterations)
		registry.MustRegister(TrainingConverged)
		registry.MustRegister(LikelihoodClampsTotal)
		registry.MustRegister(CalibrationPassThroughsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records an issued probability set and its latency.
func RecordPrediction(provenance string, durationSeconds float64) {
	PredictionsTotal.WithLabelValues(provenance).Inc()
	PredictionDuration.Observe(durationSeconds)
}

// RecordPredictionError records a failed prediction request.
func RecordPredictionError() {
	PredictionErrorsTotal.Inc()
}

// RecordCacheHit records a prediction cache hit.
func RecordCacheHit() {
	PredictionCacheHitsTotal.Inc()
}

// RecordCacheMiss records a prediction cache miss.
func RecordCacheMiss() {
	PredictionCacheMissesTotal.Inc()
}

// RecordBlendFallback records a prediction served on model probabilities alone.
func RecordBlendFallback() {
	BlendFallbacksTotal.Inc()
}

// UpdateActiveModel marks the given artifact version as the live one for its
// model type. Previous version labels are reset so only one series is 1.
func UpdateActiveModel(modelType, version string) {
	ActiveModelInfo.Reset()
	ActiveModelInfo.WithLabelValues(modelType, version).Set(1)
}

// UpdateBlendAlpha updates the exported blend weight gauge.
func UpdateBlendAlpha(alpha float64) {
	BlendAlpha.Set(alpha)
}
