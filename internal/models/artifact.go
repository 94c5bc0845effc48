package models

import (
	"time"

	"github.com/google/uuid"
)

// ArtifactStatus represents the lifecycle state of a model artifact
type ArtifactStatus string

const (
	StatusTraining ArtifactStatus = "training"
	StatusActive   ArtifactStatus = "active"
	StatusArchived ArtifactStatus = "archived"
	StatusFailed   ArtifactStatus = "failed"
)

// ModelType identifies a family of models; at most one artifact per type is
// active at any time
type ModelType string

const (
	ModelTypeDixonColes ModelType = "dixon_coles"
)

// TrainingMeta represents the audit metadata captured while an artifact is fitted
type TrainingMeta struct {
	DataHash       string    `json:"data_hash"`
	MatchCount     int       `json:"match_count"`
	DateFrom       time.Time `json:"date_from"`
	DateTo         time.Time `json:"date_to"`
	Iterations     int       `json:"iterations"`
	MaxDelta       float64   `json:"max_delta"`
	Converged      bool      `json:"converged"`
	DefaultedTeams []string  `json:"defaulted_teams,omitempty"`
}

// ValidationMetrics represents the held-out evaluation of an artifact
type ValidationMetrics struct {
	Brier              float64  `json:"brier"`
	LogLoss            float64  `json:"log_loss"`
	Accuracy           float64  `json:"accuracy"`
	DrawAccuracy       float64  `json:"draw_accuracy"`
	ValidationCount    int      `json:"validation_count"`
	CalibratedOutcomes []string `json:"calibrated_outcomes,omitempty"`
}

// ModelArtifact represents one immutable, versioned output of a training run.
// Once promoted to active it is never mutated; retraining produces a new
// artifact and archives this one.
type ModelArtifact struct {
	ID          uuid.UUID         `db:"id" json:"id" validate:"required,uuid4"`
	ModelType   ModelType         `db:"model_type" json:"model_type" validate:"required"`
	Version     string            `db:"version" json:"version" validate:"required"`
	Ratings     RatingSet         `db:"-" json:"ratings"`
	Parameters  ModelParameters   `db:"-" json:"parameters"`
	Calibration []byte            `db:"calibration" json:"-"`
	Training    TrainingMeta      `db:"-" json:"training"`
	Metrics     ValidationMetrics `db:"-" json:"metrics"`
	Status      ArtifactStatus    `db:"status" json:"status" validate:"required,oneof=training active archived failed"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	PromotedAt  *time.Time        `db:"promoted_at" json:"promoted_at"`
	ArchivedAt  *time.Time        `db:"archived_at" json:"archived_at"`
}

// IsActive checks if the artifact is the live one for its model type
func (a *ModelArtifact) IsActive() bool {
	return a.Status == StatusActive
}

// CanTransitionTo reports whether the status change is a legal lifecycle move
func (a *ModelArtifact) CanTransitionTo(next ArtifactStatus) bool {
	switch a.Status {
	case StatusTraining:
		return next == StatusActive || next == StatusFailed
	case StatusActive:
		return next == StatusArchived
	default:
		return false
	}
}
