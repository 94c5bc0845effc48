// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging for registry lifecycle
// events. Every promotion, archival and failure lands here so the model
// history stays reconstructible from logs alone.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogArtifactPromotion logs the atomic promotion of a new active artifact.
func (al *AuditLogger) LogArtifactPromotion(artifactID, modelType, version, dataHash string, archivedID string, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"artifact_id":          artifactID,
		"model_type":           modelType,
		"artifact_version":     version,
		"data_hash":            dataHash,
		"archived_artifact_id": archivedID,
		"timestamp":            timestamp.Unix(),
	}).Info("Model artifact promoted")
}

// LogArtifactArchived logs the archival of a previously active artifact.
func (al *AuditLogger) LogArtifactArchived(artifactID, modelType, version string) {
	al.WithFields(logrus.Fields{
		"artifact_id":      artifactID,
		"model_type":       modelType,
		"artifact_version": version,
	}).Info("Model artifact archived")
}

// LogTrainingRunRecorded logs the creation of the audit row before fitting starts.
func (al *AuditLogger) LogTrainingRunRecorded(runID, modelType, dataHash string, matchCount int, dateFrom, dateTo time.Time) {
	al.WithFields(logrus.Fields{
		"run_id":      runID,
		"model_type":  modelType,
		"data_hash":   dataHash,
		"match_count": matchCount,
		"date_from":   dateFrom.Format("2006-01-02"),
		"date_to":     dateTo.Format("2006-01-02"),
	}).Info("Training run recorded")
}

// LogTrainingRunFailure logs a terminal run failure with its reason.
func (al *AuditLogger) LogTrainingRunFailure(runID, modelType, reason string) {
	al.WithFields(logrus.Fields{
		"run_id":     runID,
		"model_type": modelType,
		"reason":     reason,
	}).Warn("Training run failure recorded")
}

// LogHeuristicSetIssued logs that an exploratory probability set left the
// prediction path. Heuristic sets are informational only and the audit trail
// keeps track of who asked for them.
func (al *AuditLogger) LogHeuristicSetIssued(fixtureID, variant, requestedBy string) {
	al.WithFields(logrus.Fields{
		"fixture_id":   fixtureID,
		"variant":      variant,
		"requested_by": requestedBy,
	}).Info("Heuristic probability set issued")
}
