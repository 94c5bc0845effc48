package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/goalodds/internal/models"
)

// MatchRepository defines the interface for historical match data access
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	InsertBatch(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error)
	// GetByDateRange returns completed matches ordered by match date then id,
	// so repeated loads of the same window produce the identical slice.
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.Match, error)
	GetByTeam(ctx context.Context, team string, start, end time.Time) ([]*models.Match, error)
	CountByDateRange(ctx context.Context, start, end time.Time) (int, error)
}

// ArtifactRepository defines the interface for model artifact data access
type ArtifactRepository interface {
	Create(ctx context.Context, artifact *models.ModelArtifact) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ModelArtifact, error)
	GetActiveByType(ctx context.Context, modelType models.ModelType) (*models.ModelArtifact, error)
	GetByTypeAndVersion(ctx context.Context, modelType models.ModelType, version string) (*models.ModelArtifact, error)
	ListByType(ctx context.Context, modelType models.ModelType, limit int) ([]*models.ModelArtifact, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ArtifactStatus) error
	// Promote atomically archives the currently active artifact of the same
	// type and activates the given one.
	Promote(ctx context.Context, id uuid.UUID) error
}

// TrainingRunRepository defines the interface for training run audit records
type TrainingRunRepository interface {
	Create(ctx context.Context, run *models.TrainingRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingRun, error)
	Update(ctx context.Context, run *models.TrainingRun) error
	ListRecent(ctx context.Context, modelType models.ModelType, limit int) ([]*models.TrainingRun, error)
	GetRunning(ctx context.Context, modelType models.ModelType) ([]*models.TrainingRun, error)
}

// SignalRepository defines the interface for per-fixture draw signal access
type SignalRepository interface {
	Upsert(ctx context.Context, signals *models.DrawSignals) error
	GetByFixtureID(ctx context.Context, fixtureID uuid.UUID) (*models.DrawSignals, error)
}
