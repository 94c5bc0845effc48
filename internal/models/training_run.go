package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus represents the state of a training run
type RunStatus string

const (
	RunStatusTraining RunStatus = "training"
	RunStatusActive   RunStatus = "active"
	RunStatusFailed   RunStatus = "failed"
)

// TrainingRun represents one audit record of a training attempt. The record
// is written before any fitting starts, so interrupted runs stay visible.
type TrainingRun struct {
	ID          uuid.UUID  `db:"id" json:"id" validate:"required,uuid4"`
	ModelType   ModelType  `db:"model_type" json:"model_type" validate:"required"`
	Status      RunStatus  `db:"status" json:"status" validate:"required,oneof=training active failed"`
	DataHash    string     `db:"data_hash" json:"data_hash"`
	MatchCount  int        `db:"match_count" json:"match_count"`
	DateFrom    time.Time  `db:"date_from" json:"date_from"`
	DateTo      time.Time  `db:"date_to" json:"date_to"`
	ArtifactID  *uuid.UUID `db:"artifact_id" json:"artifact_id"`
	Error       string     `db:"error" json:"error,omitempty"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
}

// IsFinished checks if the run has reached a terminal state
func (r *TrainingRun) IsFinished() bool {
	return r.Status == RunStatusActive || r.Status == RunStatusFailed
}

// Duration returns how long the run took, or how long it has been running
func (r *TrainingRun) Duration() time.Duration {
	if r.CompletedAt != nil {
		return r.CompletedAt.Sub(r.StartedAt)
	}
	return time.Since(r.StartedAt)
}
