// Package logger provides prediction-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PredictionLogger provides dedicated logging for the prediction path.
type PredictionLogger struct {
	*logrus.Entry
}

// NewPredictionLogger creates a new prediction logger.
func NewPredictionLogger(baseLogger *logrus.Logger) *PredictionLogger {
	return &PredictionLogger{
		Entry: baseLogger.WithField("component", "prediction"),
	}
}

// LogPrediction logs a completed prediction request.
func (pl *PredictionLogger) LogPrediction(fixtureID, modelVersion string, home, draw, away float64, calibrated, cacheHit bool, latencyMs float64) {
	pl.WithFields(logrus.Fields{
		"fixture_id":    fixtureID,
		"model_version": modelVersion,
		"p_home":        home,
		"p_draw":        draw,
		"p_away":        away,
		"calibrated":    calibrated,
		"cache_hit":     cacheHit,
		"latency_ms":    latencyMs,
	}).Info("Prediction completed")
}

// LogBlendSkipped logs that a fixture passed through unblended.
func (pl *PredictionLogger) LogBlendSkipped(fixtureID, reason string) {
	pl.WithFields(logrus.Fields{
		"fixture_id": fixtureID,
		"reason":     reason,
	}).Debug("Blending skipped")
}

// LogCalibrationPassThrough logs outcomes that were mapped through an
// unfitted calibration curve.
func (pl *PredictionLogger) LogCalibrationPassThrough(fixtureID string, outcomes []string) {
	pl.WithFields(logrus.Fields{
		"fixture_id": fixtureID,
		"outcomes":   outcomes,
	}).Debug("Calibration pass-through applied")
}

// LogPredictionError logs a failed prediction request.
func (pl *PredictionLogger) LogPredictionError(fixtureID, reason string) {
	pl.WithFields(logrus.Fields{
		"fixture_id":   fixtureID,
		"error_reason": reason,
	}).Error("Prediction failed")
}
