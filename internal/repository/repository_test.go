package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/goalodds/internal/database"
	"github.com/yourusername/goalodds/internal/models"
)

const skipIntegrationMsg = "Integration test - requires database setup"

// TestMatchRepositoryRoundTrip tests match insertion and windowed retrieval
func TestMatchRepositoryRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegrationMsg)
	}

	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	if err != nil {
		t.Fatalf("failed to create repositories: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	base := time.Date(2024, 9, 14, 15, 0, 0, 0, time.UTC)
	matches := []*models.Match{
		{ID: uuid.New(), HomeTeam: "arsenal", AwayTeam: "chelsea", MatchDate: base, HomeGoals: 2, AwayGoals: 1},
		{ID: uuid.New(), HomeTeam: "leeds", AwayTeam: "everton", MatchDate: base.AddDate(0, 0, 1), HomeGoals: 0, AwayGoals: 0},
	}

	if err := repos.Match.InsertBatch(ctx, matches); err != nil {
		t.Fatalf("failed to batch insert matches: %v", err)
	}

	retrieved, err := repos.Match.GetByDateRange(ctx, base.AddDate(0, 0, -1), base.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("failed to retrieve matches: %v", err)
	}

	if len(retrieved) != 2 {
		t.Errorf("expected 2 matches, got %d", len(retrieved))
	}

	if len(retrieved) == 2 && retrieved[0].MatchDate.After(retrieved[1].MatchDate) {
		t.Error("expected chronological ordering")
	}
}

// TestArtifactPromotionInvariant tests that promotion leaves exactly one active artifact
func TestArtifactPromotionInvariant(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegrationMsg)
	}

	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	if err != nil {
		t.Fatalf("failed to create repositories: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first := &models.ModelArtifact{
		ID:        uuid.New(),
		ModelType: models.ModelTypeDixonColes,
		Version:   "v1",
		Ratings:   models.RatingSet{},
		Status:    models.StatusTraining,
	}
	second := &models.ModelArtifact{
		ID:        uuid.New(),
		ModelType: models.ModelTypeDixonColes,
		Version:   "v2",
		Ratings:   models.RatingSet{},
		Status:    models.StatusTraining,
	}

	if err := repos.Artifact.Create(ctx, first); err != nil {
		t.Fatalf("failed to create first artifact: %v", err)
	}
	if err := repos.Artifact.Create(ctx, second); err != nil {
		t.Fatalf("failed to create second artifact: %v", err)
	}

	if err := repos.Artifact.Promote(ctx, first.ID); err != nil {
		t.Fatalf("failed to promote first artifact: %v", err)
	}
	if err := repos.Artifact.Promote(ctx, second.ID); err != nil {
		t.Fatalf("failed to promote second artifact: %v", err)
	}

	active, err := repos.Artifact.GetActiveByType(ctx, models.ModelTypeDixonColes)
	if err != nil {
		t.Fatalf("failed to get active artifact: %v", err)
	}
	if active.ID != second.ID {
		t.Errorf("expected artifact %v active, got %v", second.ID, active.ID)
	}

	archived, err := repos.Artifact.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("failed to get archived artifact: %v", err)
	}
	if archived.Status != models.StatusArchived {
		t.Errorf("expected first artifact archived, got %s", archived.Status)
	}
}

// TestSignalRepositoryUpsert tests signal bag insert-then-replace
func TestSignalRepositoryUpsert(t *testing.T) {
	if testing.Short() {
		t.Skip(skipIntegrationMsg)
	}

	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	if err != nil {
		t.Fatalf("failed to create repositories: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	fixtureID := uuid.New()
	prior := 1.08
	signals := &models.DrawSignals{FixtureID: fixtureID, LeaguePrior: &prior}

	if err := repos.Signal.Upsert(ctx, signals); err != nil {
		t.Fatalf("failed to upsert signals: %v", err)
	}

	updated := 1.12
	signals.LeaguePrior = &updated
	if err := repos.Signal.Upsert(ctx, signals); err != nil {
		t.Fatalf("failed to re-upsert signals: %v", err)
	}

	retrieved, err := repos.Signal.GetByFixtureID(ctx, fixtureID)
	if err != nil {
		t.Fatalf("failed to get signals: %v", err)
	}
	if retrieved.LeaguePrior == nil || *retrieved.LeaguePrior != updated {
		t.Errorf("expected league prior %f, got %v", updated, retrieved.LeaguePrior)
	}
}
