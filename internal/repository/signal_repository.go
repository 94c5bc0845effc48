package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/goalodds/internal/database"
	"github.com/yourusername/goalodds/internal/models"
)

// PostgresSignalRepository implements SignalRepository for PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE draw_signals (
//	    fixture_id uuid PRIMARY KEY,
//	    league_prior double precision,
//	    elo_symmetry double precision,
//	    head_to_head double precision,
//	    weather double precision,
//	    referee double precision,
//	    rest double precision,
//	    odds_drift double precision,
//	    expected_goals double precision,
//	    updated_at timestamptz NOT NULL DEFAULT now()
//	);
type PostgresSignalRepository struct {
	db *database.DB
}

// NewPostgresSignalRepository creates a new draw signal repository
func NewPostgresSignalRepository(db *database.DB) SignalRepository {
	return &PostgresSignalRepository{db: db}
}

// Upsert inserts or replaces the signal bag for a fixture
func (r *PostgresSignalRepository) Upsert(ctx context.Context, signals *models.DrawSignals) error {
	query := `
		INSERT INTO draw_signals (fixture_id, league_prior, elo_symmetry, head_to_head, weather, referee, rest, odds_drift, expected_goals, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (fixture_id) DO UPDATE SET
			league_prior = EXCLUDED.league_prior,
			elo_symmetry = EXCLUDED.elo_symmetry,
			head_to_head = EXCLUDED.head_to_head,
			weather = EXCLUDED.weather,
			referee = EXCLUDED.referee,
			rest = EXCLUDED.rest,
			odds_drift = EXCLUDED.odds_drift,
			expected_goals = EXCLUDED.expected_goals,
			updated_at = NOW()
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		signals.FixtureID, signals.LeaguePrior, signals.EloSymmetry, signals.HeadToHead,
		signals.Weather, signals.Referee, signals.Rest, signals.OddsDrift, signals.ExpectedGoals,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert draw signals: %w", err)
	}

	return nil
}

// GetByFixtureID retrieves the signal bag for a fixture
func (r *PostgresSignalRepository) GetByFixtureID(ctx context.Context, fixtureID uuid.UUID) (*models.DrawSignals, error) {
	query := `
		SELECT fixture_id, league_prior, elo_symmetry, head_to_head, weather, referee, rest, odds_drift, expected_goals, updated_at
		FROM draw_signals WHERE fixture_id = $1
	`

	signals := &models.DrawSignals{}
	err := r.db.GetPool().QueryRow(ctx, query, fixtureID).Scan(
		&signals.FixtureID, &signals.LeaguePrior, &signals.EloSymmetry, &signals.HeadToHead,
		&signals.Weather, &signals.Referee, &signals.Rest, &signals.OddsDrift,
		&signals.ExpectedGoals, &signals.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draw signals: %w", err)
	}

	return signals, nil
}
