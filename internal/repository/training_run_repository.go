package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/goalodds/internal/database"
	"github.com/yourusername/goalodds/internal/models"
)

// PostgresTrainingRunRepository implements TrainingRunRepository for PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE training_runs (
//	    id uuid PRIMARY KEY,
//	    model_type text NOT NULL,
//	    status text NOT NULL,
//	    data_hash text NOT NULL DEFAULT '',
//	    match_count int NOT NULL DEFAULT 0,
//	    date_from timestamptz NOT NULL,
//	    date_to timestamptz NOT NULL,
//	    artifact_id uuid,
//	    error text NOT NULL DEFAULT '',
//	    started_at timestamptz NOT NULL,
//	    completed_at timestamptz
//	);
type PostgresTrainingRunRepository struct {
	db *database.DB
}

// NewPostgresTrainingRunRepository creates a new training run repository
func NewPostgresTrainingRunRepository(db *database.DB) TrainingRunRepository {
	return &PostgresTrainingRunRepository{db: db}
}

// Create inserts a new training run audit record
func (r *PostgresTrainingRunRepository) Create(ctx context.Context, run *models.TrainingRun) error {
	query := `
		INSERT INTO training_runs (id, model_type, status, data_hash, match_count, date_from, date_to, artifact_id, error, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.ModelType, run.Status, run.DataHash, run.MatchCount,
		run.DateFrom, run.DateTo, run.ArtifactID, run.Error, run.StartedAt, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create training run: %w", err)
	}

	return nil
}

// GetByID retrieves a training run by ID
func (r *PostgresTrainingRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingRun, error) {
	query := trainingRunSelect + ` WHERE id = $1`

	run, err := scanTrainingRun(r.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get training run: %w", err)
	}

	return run, nil
}

// Update updates an existing training run
func (r *PostgresTrainingRunRepository) Update(ctx context.Context, run *models.TrainingRun) error {
	query := `
		UPDATE training_runs SET
			status = $2, data_hash = $3, match_count = $4, artifact_id = $5, error = $6, completed_at = $7
		WHERE id = $1
	`

	commandTag, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.Status, run.DataHash, run.MatchCount, run.ArtifactID, run.Error, run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update training run: %w", err)
	}

	if commandTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// ListRecent retrieves the most recent runs for a model type
func (r *PostgresTrainingRunRepository) ListRecent(ctx context.Context, modelType models.ModelType, limit int) ([]*models.TrainingRun, error) {
	query := trainingRunSelect + `
		WHERE model_type = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, modelType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	defer rows.Close()

	return collectTrainingRuns(rows)
}

// GetRunning retrieves runs still in training status for a model type
func (r *PostgresTrainingRunRepository) GetRunning(ctx context.Context, modelType models.ModelType) ([]*models.TrainingRun, error) {
	query := trainingRunSelect + `
		WHERE model_type = $1 AND status = 'training'
		ORDER BY started_at ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, modelType)
	if err != nil {
		return nil, fmt.Errorf("failed to query running training runs: %w", err)
	}
	defer rows.Close()

	return collectTrainingRuns(rows)
}

const trainingRunSelect = `
	SELECT id, model_type, status, data_hash, match_count, date_from, date_to, artifact_id, error, started_at, completed_at
	FROM training_runs`

func scanTrainingRun(row pgx.Row) (*models.TrainingRun, error) {
	run := &models.TrainingRun{}
	err := row.Scan(
		&run.ID, &run.ModelType, &run.Status, &run.DataHash, &run.MatchCount,
		&run.DateFrom, &run.DateTo, &run.ArtifactID, &run.Error, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return run, nil
}

func collectTrainingRuns(rows pgx.Rows) ([]*models.TrainingRun, error) {
	var runs []*models.TrainingRun
	for rows.Next() {
		run, err := scanTrainingRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
