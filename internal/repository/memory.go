package repository

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/goalodds/internal/models"
)

// The memory repositories implement the repository interfaces against plain
// maps. They back tests and local experiments where a PostgreSQL instance is
// not available, and mirror the ordering and error contracts of the Postgres
// implementations so callers cannot tell them apart.

// MemoryMatchRepository implements MatchRepository in memory.
type MemoryMatchRepository struct {
	mu      sync.RWMutex
	matches map[uuid.UUID]models.Match
}

// NewMemoryMatchRepository creates an empty in-memory match repository
func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{matches: make(map[uuid.UUID]models.Match)}
}

// Create inserts a single match
func (m *MemoryMatchRepository) Create(ctx context.Context, match *models.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.matches[match.ID]; exists {
		return fmt.Errorf("failed to create match: duplicate id %s", match.ID)
	}
	m.matches[match.ID] = cloneMatch(match)

	return nil
}

// InsertBatch inserts multiple matches
func (m *MemoryMatchRepository) InsertBatch(ctx context.Context, matches []*models.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, match := range matches {
		m.matches[match.ID] = cloneMatch(match)
	}

	return nil
}

// GetByID retrieves a match by ID
func (m *MemoryMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	match, ok := m.matches[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := cloneMatch(&match)

	return &out, nil
}

// GetByDateRange retrieves matches in a window ordered by date then id
func (m *MemoryMatchRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*models.Match
	for _, match := range m.matches {
		if match.MatchDate.Before(start) || match.MatchDate.After(end) {
			continue
		}
		out := cloneMatch(&match)
		matches = append(matches, &out)
	}
	sortMatches(matches)

	return matches, nil
}

// GetByTeam retrieves matches involving a team within a window
func (m *MemoryMatchRepository) GetByTeam(ctx context.Context, team string, start, end time.Time) ([]*models.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*models.Match
	for _, match := range m.matches {
		if match.HomeTeam != team && match.AwayTeam != team {
			continue
		}
		if match.MatchDate.Before(start) || match.MatchDate.After(end) {
			continue
		}
		out := cloneMatch(&match)
		matches = append(matches, &out)
	}
	sortMatches(matches)

	return matches, nil
}

// CountByDateRange counts matches in a window
func (m *MemoryMatchRepository) CountByDateRange(ctx context.Context, start, end time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, match := range m.matches {
		if !match.MatchDate.Before(start) && !match.MatchDate.After(end) {
			count++
		}
	}

	return count, nil
}

// MemoryArtifactRepository implements ArtifactRepository in memory. The
// FailCreate and FailPromote fields inject errors into the corresponding
// operations so tests can exercise failure paths.
type MemoryArtifactRepository struct {
	mu        sync.RWMutex
	artifacts map[uuid.UUID]models.ModelArtifact

	FailCreate  error
	FailPromote error
}

// NewMemoryArtifactRepository creates an empty in-memory artifact repository
func NewMemoryArtifactRepository() *MemoryArtifactRepository {
	return &MemoryArtifactRepository{artifacts: make(map[uuid.UUID]models.ModelArtifact)}
}

// Create inserts a new model artifact
func (r *MemoryArtifactRepository) Create(ctx context.Context, artifact *models.ModelArtifact) error {
	if r.FailCreate != nil {
		return r.FailCreate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.artifacts {
		if existing.ModelType == artifact.ModelType && existing.Version == artifact.Version {
			return fmt.Errorf("failed to create artifact: duplicate version %s for %s", artifact.Version, artifact.ModelType)
		}
	}
	r.artifacts[artifact.ID] = cloneArtifact(artifact)

	return nil
}

// GetByID retrieves an artifact by ID
func (r *MemoryArtifactRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ModelArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	artifact, ok := r.artifacts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := cloneArtifact(&artifact)

	return &out, nil
}

// GetActiveByType retrieves the single active artifact for a model type
func (r *MemoryArtifactRepository) GetActiveByType(ctx context.Context, modelType models.ModelType) (*models.ModelArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, artifact := range r.artifacts {
		if artifact.ModelType == modelType && artifact.Status == models.StatusActive {
			out := cloneArtifact(&artifact)
			return &out, nil
		}
	}

	return nil, models.ErrNoActiveModel
}

// GetByTypeAndVersion retrieves a specific artifact version
func (r *MemoryArtifactRepository) GetByTypeAndVersion(ctx context.Context, modelType models.ModelType, version string) (*models.ModelArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, artifact := range r.artifacts {
		if artifact.ModelType == modelType && artifact.Version == version {
			out := cloneArtifact(&artifact)
			return &out, nil
		}
	}

	return nil, models.ErrNotFound
}

// ListByType retrieves the most recent artifacts for a model type
func (r *MemoryArtifactRepository) ListByType(ctx context.Context, modelType models.ModelType, limit int) ([]*models.ModelArtifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var artifacts []*models.ModelArtifact
	for _, artifact := range r.artifacts {
		if artifact.ModelType != modelType {
			continue
		}
		out := cloneArtifact(&artifact)
		artifacts = append(artifacts, &out)
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
	})
	if limit > 0 && len(artifacts) > limit {
		artifacts = artifacts[:limit]
	}

	return artifacts, nil
}

// UpdateStatus moves an artifact to a new lifecycle status
func (r *MemoryArtifactRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ArtifactStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	artifact, ok := r.artifacts[id]
	if !ok {
		return models.ErrNotFound
	}
	artifact.Status = status
	r.artifacts[id] = artifact

	return nil
}

// Promote activates an artifact and archives the previously active one of the
// same model type, applying both changes under a single lock so readers never
// observe two active artifacts.
func (r *MemoryArtifactRepository) Promote(ctx context.Context, id uuid.UUID) error {
	if r.FailPromote != nil {
		return r.FailPromote
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	artifact, ok := r.artifacts[id]
	if !ok {
		return models.ErrNotFound
	}
	if !artifact.CanTransitionTo(models.StatusActive) {
		return fmt.Errorf("artifact %s in status %s cannot be promoted", id, artifact.Status)
	}

	now := time.Now().UTC()
	for otherID, other := range r.artifacts {
		if otherID == id || other.ModelType != artifact.ModelType || other.Status != models.StatusActive {
			continue
		}
		other.Status = models.StatusArchived
		archivedAt := now
		other.ArchivedAt = &archivedAt
		r.artifacts[otherID] = other
	}

	artifact.Status = models.StatusActive
	promotedAt := now
	artifact.PromotedAt = &promotedAt
	r.artifacts[id] = artifact

	return nil
}

// MemoryTrainingRunRepository implements TrainingRunRepository in memory. The
// FailCreate and FailUpdate fields inject errors into the corresponding
// operations.
type MemoryTrainingRunRepository struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]models.TrainingRun

	FailCreate error
	FailUpdate error
}

// NewMemoryTrainingRunRepository creates an empty in-memory run repository
func NewMemoryTrainingRunRepository() *MemoryTrainingRunRepository {
	return &MemoryTrainingRunRepository{runs: make(map[uuid.UUID]models.TrainingRun)}
}

// Create inserts a new training run audit record
func (r *MemoryTrainingRunRepository) Create(ctx context.Context, run *models.TrainingRun) error {
	if r.FailCreate != nil {
		return r.FailCreate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = cloneTrainingRun(run)

	return nil
}

// GetByID retrieves a training run by ID
func (r *MemoryTrainingRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TrainingRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := cloneTrainingRun(&run)

	return &out, nil
}

// Update updates an existing training run
func (r *MemoryTrainingRunRepository) Update(ctx context.Context, run *models.TrainingRun) error {
	if r.FailUpdate != nil {
		return r.FailUpdate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; !ok {
		return models.ErrNotFound
	}
	r.runs[run.ID] = cloneTrainingRun(run)

	return nil
}

// ListRecent retrieves the most recent runs for a model type
func (r *MemoryTrainingRunRepository) ListRecent(ctx context.Context, modelType models.ModelType, limit int) ([]*models.TrainingRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var runs []*models.TrainingRun
	for _, run := range r.runs {
		if run.ModelType != modelType {
			continue
		}
		out := cloneTrainingRun(&run)
		runs = append(runs, &out)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}

// GetRunning retrieves runs still in training status for a model type
func (r *MemoryTrainingRunRepository) GetRunning(ctx context.Context, modelType models.ModelType) ([]*models.TrainingRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var runs []*models.TrainingRun
	for _, run := range r.runs {
		if run.ModelType != modelType || run.Status != models.RunStatusTraining {
			continue
		}
		out := cloneTrainingRun(&run)
		runs = append(runs, &out)
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})

	return runs, nil
}

// MemorySignalRepository implements SignalRepository in memory.
type MemorySignalRepository struct {
	mu      sync.RWMutex
	signals map[uuid.UUID]models.DrawSignals
}

// NewMemorySignalRepository creates an empty in-memory signal repository
func NewMemorySignalRepository() *MemorySignalRepository {
	return &MemorySignalRepository{signals: make(map[uuid.UUID]models.DrawSignals)}
}

// Upsert inserts or replaces the signal bag for a fixture
func (r *MemorySignalRepository) Upsert(ctx context.Context, signals *models.DrawSignals) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneSignals(signals)
	stored.UpdatedAt = time.Now().UTC()
	r.signals[signals.FixtureID] = stored

	return nil
}

// GetByFixtureID retrieves the signal bag for a fixture
func (r *MemorySignalRepository) GetByFixtureID(ctx context.Context, fixtureID uuid.UUID) (*models.DrawSignals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	signals, ok := r.signals[fixtureID]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := cloneSignals(&signals)

	return &out, nil
}

// sortMatches orders a result set by match date then id, matching the
// Postgres ORDER BY so dataset hashes agree across backends
func sortMatches(matches []*models.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].MatchDate.Equal(matches[j].MatchDate) {
			return matches[i].MatchDate.Before(matches[j].MatchDate)
		}
		return bytes.Compare(matches[i].ID[:], matches[j].ID[:]) < 0
	})
}

// The clone helpers deep-copy rows on the way in and out so callers mutating
// a returned struct cannot change the stored one, matching database behavior.

func cloneMatch(match *models.Match) models.Match {
	out := *match
	if match.Closing != nil {
		closing := *match.Closing
		out.Closing = &closing
	}
	return out
}

func cloneArtifact(artifact *models.ModelArtifact) models.ModelArtifact {
	out := *artifact
	if artifact.Ratings != nil {
		out.Ratings = make(models.RatingSet, len(artifact.Ratings))
		for team, rating := range artifact.Ratings {
			out.Ratings[team] = rating
		}
	}
	if artifact.Calibration != nil {
		out.Calibration = append([]byte(nil), artifact.Calibration...)
	}
	if artifact.PromotedAt != nil {
		promotedAt := *artifact.PromotedAt
		out.PromotedAt = &promotedAt
	}
	if artifact.ArchivedAt != nil {
		archivedAt := *artifact.ArchivedAt
		out.ArchivedAt = &archivedAt
	}
	return out
}

func cloneTrainingRun(run *models.TrainingRun) models.TrainingRun {
	out := *run
	if run.ArtifactID != nil {
		artifactID := *run.ArtifactID
		out.ArtifactID = &artifactID
	}
	if run.CompletedAt != nil {
		completedAt := *run.CompletedAt
		out.CompletedAt = &completedAt
	}
	return out
}

func cloneSignals(signals *models.DrawSignals) models.DrawSignals {
	out := *signals
	copyFloat := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		value := *v
		return &value
	}
	out.LeaguePrior = copyFloat(signals.LeaguePrior)
	out.EloSymmetry = copyFloat(signals.EloSymmetry)
	out.HeadToHead = copyFloat(signals.HeadToHead)
	out.Weather = copyFloat(signals.Weather)
	out.Referee = copyFloat(signals.Referee)
	out.Rest = copyFloat(signals.Rest)
	out.OddsDrift = copyFloat(signals.OddsDrift)
	out.ExpectedGoals = copyFloat(signals.ExpectedGoals)
	return out
}
