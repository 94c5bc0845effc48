package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/yourusername/goalodds/internal/database"
	"github.com/yourusername/goalodds/internal/models"
)

// PostgresMatchRepository implements MatchRepository for PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE matches (
//	    id uuid PRIMARY KEY,
//	    league text NOT NULL DEFAULT '',
//	    home_team text NOT NULL,
//	    away_team text NOT NULL,
//	    match_date timestamptz NOT NULL,
//	    home_goals int NOT NULL CHECK (home_goals >= 0),
//	    away_goals int NOT NULL CHECK (away_goals >= 0),
//	    closing_home numeric,
//	    closing_draw numeric,
//	    closing_away numeric,
//	    created_at timestamptz NOT NULL DEFAULT now()
//	);
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

// Create inserts a single match
func (m *PostgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (id, league, home_team, away_team, match_date, home_goals, away_goals, closing_home, closing_draw, closing_away)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	closingHome, closingDraw, closingAway := closingColumns(match)
	_, err := m.db.GetPool().Exec(ctx, query,
		match.ID, match.League, match.HomeTeam, match.AwayTeam, match.MatchDate,
		match.HomeGoals, match.AwayGoals, closingHome, closingDraw, closingAway,
	)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	return nil
}

// InsertBatch inserts multiple matches using high-performance batch insert
func (m *PostgresMatchRepository) InsertBatch(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	// Use COPY for high-performance bulk insert
	columns := []string{"id", "league", "home_team", "away_team", "match_date", "home_goals", "away_goals", "closing_home", "closing_draw", "closing_away"}

	copyFromSource := make([][]interface{}, len(matches))
	for i, match := range matches {
		closingHome, closingDraw, closingAway := closingColumns(match)
		copyFromSource[i] = []interface{}{
			match.ID, match.League, match.HomeTeam, match.AwayTeam, match.MatchDate,
			match.HomeGoals, match.AwayGoals, closingHome, closingDraw, closingAway,
		}
	}

	copyCount, err := m.db.GetPool().CopyFrom(
		ctx,
		pgx.Identifier{"matches"},
		columns,
		pgx.CopyFromRows(copyFromSource),
	)
	if err != nil {
		return fmt.Errorf("failed to batch insert matches: %w", err)
	}

	if copyCount != int64(len(matches)) {
		return fmt.Errorf("inserted %d rows, expected %d", copyCount, len(matches))
	}

	return nil
}

// GetByID retrieves a match by ID
func (m *PostgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Match, error) {
	query := `
		SELECT id, league, home_team, away_team, match_date, home_goals, away_goals, closing_home, closing_draw, closing_away, created_at
		FROM matches WHERE id = $1
	`

	match, err := scanMatch(m.db.GetPool().QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// GetByDateRange retrieves matches in a window ordered by date then id
func (m *PostgresMatchRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.Match, error) {
	query := `
		SELECT id, league, home_team, away_team, match_date, home_goals, away_goals, closing_home, closing_draw, closing_away, created_at
		FROM matches
		WHERE match_date >= $1 AND match_date <= $2
		ORDER BY match_date ASC, id ASC
	`

	rows, err := m.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

// GetByTeam retrieves matches involving a team within a window
func (m *PostgresMatchRepository) GetByTeam(ctx context.Context, team string, start, end time.Time) ([]*models.Match, error) {
	query := `
		SELECT id, league, home_team, away_team, match_date, home_goals, away_goals, closing_home, closing_draw, closing_away, created_at
		FROM matches
		WHERE (home_team = $1 OR away_team = $1) AND match_date >= $2 AND match_date <= $3
		ORDER BY match_date ASC, id ASC
	`

	rows, err := m.db.GetPool().Query(ctx, query, team, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for team: %w", err)
	}
	defer rows.Close()

	return collectMatches(rows)
}

// CountByDateRange counts matches in a window
func (m *PostgresMatchRepository) CountByDateRange(ctx context.Context, start, end time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM matches WHERE match_date >= $1 AND match_date <= $2`

	var count int
	err := m.db.GetPool().QueryRow(ctx, query, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}

	return count, nil
}

// closingColumns flattens the optional odds into three nullable columns
func closingColumns(match *models.Match) (decimal.NullDecimal, decimal.NullDecimal, decimal.NullDecimal) {
	if match.Closing == nil {
		return decimal.NullDecimal{}, decimal.NullDecimal{}, decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: match.Closing.Home, Valid: true},
		decimal.NullDecimal{Decimal: match.Closing.Draw, Valid: true},
		decimal.NullDecimal{Decimal: match.Closing.Away, Valid: true}
}

// scanMatch scans one match row, reassembling the optional odds
func scanMatch(row pgx.Row) (*models.Match, error) {
	match := &models.Match{}
	var closingHome, closingDraw, closingAway decimal.NullDecimal

	err := row.Scan(
		&match.ID, &match.League, &match.HomeTeam, &match.AwayTeam, &match.MatchDate,
		&match.HomeGoals, &match.AwayGoals, &closingHome, &closingDraw, &closingAway, &match.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if closingHome.Valid && closingDraw.Valid && closingAway.Valid {
		match.Closing = &models.ClosingOdds{
			Home: closingHome.Decimal,
			Draw: closingDraw.Decimal,
			Away: closingAway.Decimal,
		}
	}

	return match, nil
}

// collectMatches drains a result set into a match slice
func collectMatches(rows pgx.Rows) ([]*models.Match, error) {
	var matches []*models.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, rows.Err()
}
