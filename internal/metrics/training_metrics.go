// Package metrics defines training-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Training-specific counters
var (
	TrainingRunsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalodds",
		Name:      "training_runs_started_total",
		Help:      "Total number of training runs started",
	})

	TrainingRunsFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goalodds",
		Name:      "training_runs_finished_total",
		Help:      "Total number of training runs finished, by terminal status",
	}, []string{"status"})

	LikelihoodClampsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "goalodds",
		Name:      "likelihood_clamps_total",
		Help:      "Total number of likelihood terms clamped away from zero during fitting",
	})

	CalibrationPassThroughsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "goalodds",
		Name:      "calibration_pass_throughs_total",
		Help:      "Total number of outcome probabilities passed through uncalibrated",
	}, []string{"outcome"})
)

// Training-specific gauges
var (
	TrainingIterations = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goalodds",
		Name:      "training_iterations",
		Help:      "Iteration count of the most recent strength fit",
	})

	TrainingConverged = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "goalodds",
		Name:      "training_converged",
		Help:      "Whether the most recent strength fit converged (1) or hit the iteration cap (0)",
	})
)

// Training-specific histograms
var (
	TrainingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "goalodds",
		Name:      "training_duration_seconds",
		Help:      "Duration of full training runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// RecordTrainingRunStarted records a training run entering the training state.
func RecordTrainingRunStarted() {
	TrainingRunsStartedTotal.Inc()
}

// RecordTrainingRunFinished records a training run reaching a terminal status.
func RecordTrainingRunFinished(status string) {
	TrainingRunsFinishedTotal.WithLabelValues(status).Inc()
}

// RecordTrainingDuration records how long a full training run took.
func RecordTrainingDuration(durationSeconds float64) {
	TrainingDuration.Observe(durationSeconds)
}

// UpdateTrainingFit updates the iteration and convergence gauges for the most
// recent strength fit.
func UpdateTrainingFit(iterations int, converged bool) {
	TrainingIterations.Set(float64(iterations))
	if converged {
		TrainingConverged.Set(1)
	} else {
		TrainingConverged.Set(0)
	}
}

// RecordLikelihoodClamps adds clamped likelihood terms observed during a fit.
func RecordLikelihoodClamps(count int) {
	if count > 0 {
		LikelihoodClampsTotal.Add(float64(count))
	}
}

// RecordCalibrationPassThrough records an outcome served without calibration.
func RecordCalibrationPassThrough(outcome string) {
	CalibrationPassThroughsTotal.WithLabelValues(outcome).Inc()
}
