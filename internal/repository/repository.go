package repository

import (
	"fmt"

	"github.com/yourusername/goalodds/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Match       MatchRepository
	Artifact    ArtifactRepository
	TrainingRun TrainingRunRepository
	Signal      SignalRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Match:       NewPostgresMatchRepository(db),
		Artifact:    NewPostgresArtifactRepository(db),
		TrainingRun: NewPostgresTrainingRunRepository(db),
		Signal:      NewPostgresSignalRepository(db),
	}, nil
}
