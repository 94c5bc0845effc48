package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outcome represents the final result of a match (home win, draw or away win)
type Outcome string

const (
	OutcomeHome Outcome = "H"
	OutcomeDraw Outcome = "D"
	OutcomeAway Outcome = "A"
)

// ClosingOdds represents the bookmaker closing prices for the three match outcomes.
// Prices are stored as exact decimals and only converted to float64 at the
// probability-math boundary.
type ClosingOdds struct {
	Home decimal.Decimal `db:"closing_home" json:"home" validate:"required"`
	Draw decimal.Decimal `db:"closing_draw" json:"draw" validate:"required"`
	Away decimal.Decimal `db:"closing_away" json:"away" validate:"required"`
}

// IsValid checks that every price is a playable decimal quote (> 1.0)
func (c *ClosingOdds) IsValid() bool {
	one := decimal.NewFromInt(1)
	return c.Home.GreaterThan(one) && c.Draw.GreaterThan(one) && c.Away.GreaterThan(one)
}

// Floats returns the three prices as float64 in home, draw, away order
func (c *ClosingOdds) Floats() (float64, float64, float64) {
	return c.Home.InexactFloat64(), c.Draw.InexactFloat64(), c.Away.InexactFloat64()
}

// Match represents a completed fixture used for training, or an upcoming
// fixture when the score fields are zero and unused. Records are immutable
// once loaded.
type Match struct {
	ID        uuid.UUID    `db:"id" json:"id" validate:"required,uuid4"`
	League    string       `db:"league" json:"league"`
	HomeTeam  string       `db:"home_team" json:"home_team" validate:"required"`
	AwayTeam  string       `db:"away_team" json:"away_team" validate:"required"`
	MatchDate time.Time    `db:"match_date" json:"match_date" validate:"required"`
	HomeGoals int          `db:"home_goals" json:"home_goals" validate:"gte=0"`
	AwayGoals int          `db:"away_goals" json:"away_goals" validate:"gte=0"`
	Closing   *ClosingOdds `db:"-" json:"closing_odds,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// Outcome returns the final result of the match
func (m *Match) Outcome() Outcome {
	switch {
	case m.HomeGoals > m.AwayGoals:
		return OutcomeHome
	case m.HomeGoals < m.AwayGoals:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

// HasClosingOdds checks whether a full, playable set of closing prices is attached
func (m *Match) HasClosingOdds() bool {
	return m.Closing != nil && m.Closing.IsValid()
}

// AgeDays returns the age of the match in days relative to the given reference time
func (m *Match) AgeDays(ref time.Time) float64 {
	return ref.Sub(m.MatchDate).Hours() / 24.0
}
