package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestTrainingLoggerRunStarted(t *testing.T) {
	log, buf := setupTestLogger()
	trainingLogger := NewTrainingLogger(log)

	trainingLogger.LogRunStarted("run_001", "dixon_coles", "ab12cd34", 1520)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "run_001", logEntry["run_id"])
	assert.Equal(t, "training", logEntry["component"])
	assert.Equal(t, float64(1520), logEntry["match_count"])
}

func TestTrainingLoggerStrengthFit(t *testing.T) {
	log, buf := setupTestLogger()
	trainingLogger := NewTrainingLogger(log)

	trainingLogger.LogStrengthFit("run_001", 20, 37, 4.2e-7, true, 2)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(37), logEntry["iterations"])
	assert.Equal(t, true, logEntry["converged"])
}

func TestTrainingLoggerLikelihoodClamps(t *testing.T) {
	log, buf := setupTestLogger()
	trainingLogger := NewTrainingLogger(log)

	trainingLogger.LogLikelihoodClamps("run_001", 3, -0.28)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, float64(3), logEntry["clamp_count"])
}

func TestTrainingLoggerRunFailed(t *testing.T) {
	log, buf := setupTestLogger()
	trainingLogger := NewTrainingLogger(log)

	trainingLogger.LogRunFailed("run_001", "dixon_coles", "insufficient match data")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "insufficient match data", logEntry["reason"])
}

func TestAuditLoggerArtifactPromotion(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogArtifactPromotion(
		"artifact_123",
		"dixon_coles",
		"v42",
		"ab12cd34",
		"artifact_122",
		time.Date(2025, 3, 2, 4, 0, 0, 0, time.UTC),
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "artifact_123", logEntry["artifact_id"])
	assert.Equal(t, "artifact_122", logEntry["archived_artifact_id"])
	assert.Equal(t, "audit", logEntry["component"])
}

func TestAuditLoggerTrainingRunRecorded(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogTrainingRunRecorded(
		"run_001",
		"dixon_coles",
		"ab12cd34",
		1520,
		time.Date(2022, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 25, 0, 0, 0, 0, time.UTC),
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "2022-08-01", logEntry["date_from"])
	assert.Equal(t, float64(1520), logEntry["match_count"])
}

func TestPredictionLoggerPrediction(t *testing.T) {
	log, buf := setupTestLogger()
	predictionLogger := NewPredictionLogger(log)

	predictionLogger.LogPrediction("fixture_9", "v42", 0.46, 0.27, 0.27, true, false, 2.1)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "fixture_9", logEntry["fixture_id"])
	assert.Equal(t, true, logEntry["calibrated"])
	assert.Equal(t, "prediction", logEntry["component"])
}

func TestPredictionLoggerPassThrough(t *testing.T) {
	log, buf := setupTestLogger()
	predictionLogger := NewPredictionLogger(log)

	predictionLogger.LogCalibrationPassThrough("fixture_9", []string{"draw"})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "debug", logEntry["level"])
}

func TestLoggerJSONFormat(t *testing.T) {
	log, buf := setupTestLogger()
	trainingLogger := NewTrainingLogger(log)

	trainingLogger.LogParameterEstimate("run_001", 0.27, -0.08, 0.7)

	// Verify output is valid JSON
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	assert.NoError(t, err)
	assert.NotEmpty(t, logEntry)
}

func BenchmarkTrainingLoggerStrengthFit(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	trainingLogger := NewTrainingLogger(log)

	for i := 0; i < b.N; i++ {
		trainingLogger.LogStrengthFit("run_001", 20, 37, 4.2e-7, true, 2)
	}
}

func BenchmarkPredictionLoggerPrediction(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	predictionLogger := NewPredictionLogger(log)

	for i := 0; i < b.N; i++ {
		predictionLogger.LogPrediction("fixture_9", "v42", 0.46, 0.27, 0.27, true, true, 0.4)
	}
}
