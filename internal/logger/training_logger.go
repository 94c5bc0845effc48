// Package logger provides training-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// TrainingLogger provides dedicated logging for model training operations.
type TrainingLogger struct {
	*logrus.Entry
}

// NewTrainingLogger creates a new training logger.
func NewTrainingLogger(baseLogger *logrus.Logger) *TrainingLogger {
	return &TrainingLogger{
		Entry: baseLogger.WithField("component", "training"),
	}
}

// LogRunStarted logs the start of a training run.
func (tl *TrainingLogger) LogRunStarted(runID, modelType, dataHash string, matchCount int) {
	tl.WithFields(logrus.Fields{
		"run_id":      runID,
		"model_type":  modelType,
		"data_hash":   dataHash,
		"match_count": matchCount,
	}).Info("Training run started")
}

// LogStrengthFit logs the outcome of the team-strength fit.
func (tl *TrainingLogger) LogStrengthFit(runID string, teams, iterations int, maxDelta float64, converged bool, defaultedTeams int) {
	tl.WithFields(logrus.Fields{
		"run_id":          runID,
		"teams":           teams,
		"iterations":      iterations,
		"max_delta":       maxDelta,
		"converged":       converged,
		"defaulted_teams": defaultedTeams,
	}).Info("Team strength fit completed")
}

// LogParameterEstimate logs the fitted global parameters.
func (tl *TrainingLogger) LogParameterEstimate(runID string, homeAdvantage, rho, blendAlpha float64) {
	tl.WithFields(logrus.Fields{
		"run_id":         runID,
		"home_advantage": homeAdvantage,
		"rho":            rho,
		"blend_alpha":    blendAlpha,
	}).Info("Global parameters estimated")
}

// LogLikelihoodClamps logs likelihood terms that sat on the epsilon floor at
// the fitted optimum. Frequent clamping points at degenerate parameters, so it
// surfaces at warning level.
func (tl *TrainingLogger) LogLikelihoodClamps(runID string, clampCount int, rho float64) {
	tl.WithFields(logrus.Fields{
		"run_id":      runID,
		"clamp_count": clampCount,
		"rho":         rho,
	}).Warn("Likelihood terms clamped to epsilon")
}

// LogValidation logs the held-out evaluation of a candidate artifact.
func (tl *TrainingLogger) LogValidation(runID string, brier, logLoss, accuracy, drawAccuracy float64, validationCount int) {
	tl.WithFields(logrus.Fields{
		"run_id":           runID,
		"brier":            brier,
		"log_loss":         logLoss,
		"accuracy":         accuracy,
		"draw_accuracy":    drawAccuracy,
		"validation_count": validationCount,
	}).Info("Validation metrics computed")
}

// LogRunCompleted logs a successful run and the promoted artifact.
func (tl *TrainingLogger) LogRunCompleted(runID, artifactID, version string, durationSeconds float64) {
	tl.WithFields(logrus.Fields{
		"run_id":           runID,
		"artifact_id":      artifactID,
		"artifact_version": version,
		"duration_seconds": durationSeconds,
	}).Info("Training run completed")
}

// LogRunFailed logs a failed training run.
func (tl *TrainingLogger) LogRunFailed(runID, modelType, reason string) {
	tl.WithFields(logrus.Fields{
		"run_id":     runID,
		"model_type": modelType,
		"reason":     reason,
	}).Error("Training run failed")
}
