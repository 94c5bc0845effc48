// Package registry enforces the model artifact lifecycle: at most one active
// artifact per model type, promotion that atomically archives the previous
// artifact, and mutual exclusion of training runs per model type.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalodds/internal/logger"
	"github.com/yourusername/goalodds/internal/metrics"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/repository"
)

// Registry coordinates training runs and artifact promotion. The in-memory
// lock map guards against concurrent runs inside this process; unfinished
// audit rows guard across processes. Both treat a running training as a
// mutual-exclusion condition on the model type.
type Registry struct {
	artifacts repository.ArtifactRepository
	runs      repository.TrainingRunRepository
	audit     *logger.AuditLogger

	mu       sync.Mutex
	training map[models.ModelType]uuid.UUID
}

// NewRegistry creates a registry over the artifact and run repositories
func NewRegistry(artifacts repository.ArtifactRepository, runs repository.TrainingRunRepository, baseLogger *logrus.Logger) *Registry {
	return &Registry{
		artifacts: artifacts,
		runs:      runs,
		audit:     logger.NewAuditLogger(baseLogger),
		training:  make(map[models.ModelType]uuid.UUID),
	}
}

// Begin reserves the model type and writes the audit row before any fitting
// happens. A crash after Begin leaves a diagnosable row in training status
// instead of a silent gap. Callers must finish the run with Complete or Fail.
func (r *Registry) Begin(ctx context.Context, modelType models.ModelType) (*models.TrainingRun, error) {
	run := &models.TrainingRun{
		ID:        uuid.New(),
		ModelType: modelType,
		Status:    models.RunStatusTraining,
		StartedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	if holder, held := r.training[modelType]; held {
		r.mu.Unlock()
		return nil, fmt.Errorf("run %s holds the %s training slot: %w", holder, modelType, models.ErrTrainingInProgress)
	}
	r.training[modelType] = run.ID
	r.mu.Unlock()

	// A second process may have started a run; its unfinished audit row
	// blocks this one.
	running, err := r.runs.GetRunning(ctx, modelType)
	if err != nil {
		r.release(modelType, run.ID)
		return nil, fmt.Errorf("failed to check running training runs: %w", err)
	}
	if len(running) > 0 {
		r.release(modelType, run.ID)
		return nil, fmt.Errorf("run %s already training %s: %w", running[0].ID, modelType, models.ErrTrainingInProgress)
	}

	if err := r.runs.Create(ctx, run); err != nil {
		r.release(modelType, run.ID)
		return nil, fmt.Errorf("failed to record training run: %w", err)
	}

	metrics.RecordTrainingRunStarted()
	r.audit.LogTrainingRunRecorded(run.ID.String(), string(modelType), run.DataHash, run.MatchCount, run.DateFrom, run.DateTo)
	return run, nil
}

// UpdateRun persists dataset metadata learned after the row was written,
// such as the data hash and the training window
func (r *Registry) UpdateRun(ctx context.Context, run *models.TrainingRun) error {
	if err := r.runs.Update(ctx, run); err != nil {
		return fmt.Errorf("failed to update training run: %w", err)
	}
	return nil
}

// Complete stores the fitted artifact, promotes it atomically over any
// previously active artifact of the same type, marks the run active and
// releases the training slot. On error the slot stays held so the caller's
// Fail path still owns the run.
func (r *Registry) Complete(ctx context.Context, run *models.TrainingRun, artifact *models.ModelArtifact) error {
	previous, err := r.artifacts.GetActiveByType(ctx, artifact.ModelType)
	if err != nil && !errors.Is(err, models.ErrNoActiveModel) {
		return fmt.Errorf("failed to load active artifact before promotion: %w", err)
	}

	if err := r.artifacts.Create(ctx, artifact); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}
	if err := r.artifacts.Promote(ctx, artifact.ID); err != nil {
		return fmt.Errorf("failed to promote artifact: %w", err)
	}
	artifact.Status = models.StatusActive

	now := time.Now().UTC()
	run.Status = models.RunStatusActive
	run.ArtifactID = &artifact.ID
	run.CompletedAt = &now
	if err := r.runs.Update(ctx, run); err != nil {
		return fmt.Errorf("artifact %s promoted but run update failed: %w", artifact.ID, err)
	}

	r.release(run.ModelType, run.ID)
	metrics.RecordTrainingRunFinished(string(models.RunStatusActive))

	archivedID := ""
	if previous != nil {
		archivedID = previous.ID.String()
		r.audit.LogArtifactArchived(previous.ID.String(), string(previous.ModelType), previous.Version)
	}
	r.audit.LogArtifactPromotion(artifact.ID.String(), string(artifact.ModelType), artifact.Version, artifact.Training.DataHash, archivedID, now)
	return nil
}

// Fail marks the run failed with the cause and releases the training slot.
// The active artifact, if any, stays untouched.
func (r *Registry) Fail(ctx context.Context, run *models.TrainingRun, cause error) error {
	defer r.release(run.ModelType, run.ID)

	now := time.Now().UTC()
	run.Status = models.RunStatusFailed
	run.Error = cause.Error()
	run.CompletedAt = &now

	metrics.RecordTrainingRunFinished(string(models.RunStatusFailed))
	r.audit.LogTrainingRunFailure(run.ID.String(), string(run.ModelType), cause.Error())

	if err := r.runs.Update(ctx, run); err != nil {
		return fmt.Errorf("failed to record run failure %q: %w", cause, err)
	}
	return nil
}

// Active returns the single active artifact for the model type
func (r *Registry) Active(ctx context.Context, modelType models.ModelType) (*models.ModelArtifact, error) {
	return r.artifacts.GetActiveByType(ctx, modelType)
}

// Run returns one training run by id
func (r *Registry) Run(ctx context.Context, id uuid.UUID) (*models.TrainingRun, error) {
	return r.runs.GetByID(ctx, id)
}

// InProgress reports whether this process currently trains the model type
func (r *Registry) InProgress(modelType models.ModelType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, held := r.training[modelType]
	return held
}

// ListArtifacts returns the most recent artifacts for a model type
func (r *Registry) ListArtifacts(ctx context.Context, modelType models.ModelType, limit int) ([]*models.ModelArtifact, error) {
	return r.artifacts.ListByType(ctx, modelType, limit)
}

// RecentRuns returns the most recent training runs for a model type
func (r *Registry) RecentRuns(ctx context.Context, modelType models.ModelType, limit int) ([]*models.TrainingRun, error) {
	return r.runs.ListRecent(ctx, modelType, limit)
}

// release drops the training slot if the run still holds it
func (r *Registry) release(modelType models.ModelType, runID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if holder, held := r.training[modelType]; held && holder == runID {
		delete(r.training, modelType)
	}
}
