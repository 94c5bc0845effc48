package models

import (
	"time"

	"github.com/google/uuid"
)

// DrawSignals represents the per-fixture structural indicators that move the
// draw probability. Each value is a positive multiplier near 1.0; a nil field
// means the signal is unavailable and contributes nothing.
type DrawSignals struct {
	FixtureID     uuid.UUID  `db:"fixture_id" json:"fixture_id" validate:"required,uuid4"`
	LeaguePrior   *float64   `db:"league_prior" json:"league_prior"`
	EloSymmetry   *float64   `db:"elo_symmetry" json:"elo_symmetry"`
	HeadToHead    *float64   `db:"head_to_head" json:"head_to_head"`
	Weather       *float64   `db:"weather" json:"weather"`
	Referee       *float64   `db:"referee" json:"referee"`
	Rest          *float64   `db:"rest" json:"rest"`
	OddsDrift     *float64   `db:"odds_drift" json:"odds_drift"`
	ExpectedGoals *float64   `db:"expected_goals" json:"expected_goals"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// Values returns the present signal multipliers in a fixed field order.
// Missing signals are skipped, so an empty bag yields an empty slice.
func (s *DrawSignals) Values() []float64 {
	fields := []*float64{
		s.LeaguePrior,
		s.EloSymmetry,
		s.HeadToHead,
		s.Weather,
		s.Referee,
		s.Rest,
		s.OddsDrift,
		s.ExpectedGoals,
	}
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		if f != nil {
			values = append(values, *f)
		}
	}
	return values
}
