package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/goalodds/internal/database"
	"github.com/yourusername/goalodds/internal/models"
)

// PostgresArtifactRepository implements ArtifactRepository for PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE model_artifacts (
//	    id uuid PRIMARY KEY,
//	    model_type text NOT NULL,
//	    version text NOT NULL,
//	    ratings jsonb NOT NULL,
//	    parameters jsonb NOT NULL,
//	    calibration jsonb,
//	    training_meta jsonb NOT NULL,
//	    metrics jsonb NOT NULL,
//	    status text NOT NULL,
//	    created_at timestamptz NOT NULL DEFAULT now(),
//	    promoted_at timestamptz,
//	    archived_at timestamptz,
//	    UNIQUE (model_type, version)
//	);
//	CREATE UNIQUE INDEX model_artifacts_one_active
//	    ON model_artifacts (model_type) WHERE status = 'active';
type PostgresArtifactRepository struct {
	db *database.DB
}

// NewPostgresArtifactRepository creates a new artifact repository
func NewPostgresArtifactRepository(db *database.DB) ArtifactRepository {
	return &PostgresArtifactRepository{db: db}
}

// Create inserts a new model artifact
func (r *PostgresArtifactRepository) Create(ctx context.Context, artifact *models.ModelArtifact) error {
	query := `
		INSERT INTO model_artifacts (id, model_type, version, ratings, parameters, calibration, training_meta, metrics, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	ratings, parameters, trainingMeta, metrics, err := marshalArtifactPayloads(artifact)
	if err != nil {
		return err
	}

	_, err = r.db.GetPool().Exec(ctx, query,
		artifact.ID, artifact.ModelType, artifact.Version,
		ratings, parameters, artifact.Calibration, trainingMeta, metrics, artifact.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}

	return nil
}

// GetByID retrieves an artifact by ID
func (r *PostgresArtifactRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ModelArtifact, error) {
	query := artifactSelect + ` WHERE id = $1`

	artifact, err := scanArtifact(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	return artifact, nil
}

// GetActiveByType retrieves the single active artifact for a model type
func (r *PostgresArtifactRepository) GetActiveByType(ctx context.Context, modelType models.ModelType) (*models.ModelArtifact, error) {
	query := artifactSelect + ` WHERE model_type = $1 AND status = 'active'`

	artifact, err := scanArtifact(r.db.GetPool().QueryRow(ctx, query, modelType))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNoActiveModel
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active artifact: %w", err)
	}

	return artifact, nil
}

// GetByTypeAndVersion retrieves a specific artifact version
func (r *PostgresArtifactRepository) GetByTypeAndVersion(ctx context.Context, modelType models.ModelType, version string) (*models.ModelArtifact, error) {
	query := artifactSelect + ` WHERE model_type = $1 AND version = $2`

	artifact, err := scanArtifact(r.db.GetPool().QueryRow(ctx, query, modelType, version))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artifact by version: %w", err)
	}

	return artifact, nil
}

// ListByType retrieves the most recent artifacts for a model type
func (r *PostgresArtifactRepository) ListByType(ctx context.Context, modelType models.ModelType, limit int) ([]*models.ModelArtifact, error) {
	query := artifactSelect + `
		WHERE model_type = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, modelType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []*models.ModelArtifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}

	return artifacts, rows.Err()
}

// UpdateStatus moves an artifact to a new lifecycle status
func (r *PostgresArtifactRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ArtifactStatus) error {
	query := `UPDATE model_artifacts SET status = $2 WHERE id = $1`

	commandTag, err := r.db.GetPool().Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update artifact status: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Promote activates an artifact and archives the previously active one of the
// same model type inside a single transaction. The lifecycle only permits
// promoting an artifact that is still in training status.
func (r *PostgresArtifactRepository) Promote(ctx context.Context, id uuid.UUID) error {
	// First get the artifact to find its model type
	artifact, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !artifact.CanTransitionTo(models.StatusActive) {
		return fmt.Errorf("artifact %s in status %s cannot be promoted", id, artifact.Status)
	}

	// Start transaction
	tx, err := r.db.GetPool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Archive the currently active artifact of this model type
	_, err = tx.Exec(ctx,
		"UPDATE model_artifacts SET status = 'archived', archived_at = NOW() WHERE model_type = $1 AND status = 'active' AND id != $2",
		artifact.ModelType, id,
	)
	if err != nil {
		return fmt.Errorf("failed to archive previous artifact: %w", err)
	}

	// Activate this artifact
	_, err = tx.Exec(ctx,
		"UPDATE model_artifacts SET status = 'active', promoted_at = NOW() WHERE id = $1",
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to activate artifact: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit promotion: %w", err)
	}

	return nil
}

const artifactSelect = `
	SELECT id, model_type, version, ratings, parameters, calibration, training_meta, metrics, status, created_at, promoted_at, archived_at
	FROM model_artifacts`

// marshalArtifactPayloads serializes the jsonb columns of an artifact row
func marshalArtifactPayloads(artifact *models.ModelArtifact) ([]byte, []byte, []byte, []byte, error) {
	ratings, err := json.Marshal(artifact.Ratings)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal ratings: %w", err)
	}
	parameters, err := json.Marshal(artifact.Parameters)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal parameters: %w", err)
	}
	trainingMeta, err := json.Marshal(artifact.Training)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal training meta: %w", err)
	}
	metrics, err := json.Marshal(artifact.Metrics)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal metrics: %w", err)
	}
	return ratings, parameters, trainingMeta, metrics, nil
}

// scanArtifact scans one artifact row, unmarshalling the jsonb payloads
func scanArtifact(row pgx.Row) (*models.ModelArtifact, error) {
	artifact := &models.ModelArtifact{}
	var ratings, parameters, trainingMeta, metrics []byte

	err := row.Scan(
		&artifact.ID, &artifact.ModelType, &artifact.Version,
		&ratings, &parameters, &artifact.Calibration, &trainingMeta, &metrics,
		&artifact.Status, &artifact.CreatedAt, &artifact.PromotedAt, &artifact.ArchivedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(ratings, &artifact.Ratings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ratings: %w", err)
	}
	if err := json.Unmarshal(parameters, &artifact.Parameters); err != nil {
		return nil, fmt.Errorf("failed to unmarshal parameters: %w", err)
	}
	if err := json.Unmarshal(trainingMeta, &artifact.Training); err != nil {
		return nil, fmt.Errorf("failed to unmarshal training meta: %w", err)
	}
	if err := json.Unmarshal(metrics, &artifact.Metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}

	return artifact, nil
}
