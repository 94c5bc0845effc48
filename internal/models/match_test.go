package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// TestMatchOutcome tests outcome classification from the final score
func TestMatchOutcome(t *testing.T) {
	tests := []struct {
		name      string
		homeGoals int
		awayGoals int
		want      Outcome
	}{
		{"home win", 2, 1, OutcomeHome},
		{"away win", 0, 3, OutcomeAway},
		{"scoreless draw", 0, 0, OutcomeDraw},
		{"scoring draw", 2, 2, OutcomeDraw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Match{HomeGoals: tt.homeGoals, AwayGoals: tt.awayGoals}
			if got := m.Outcome(); got != tt.want {
				t.Errorf("expected outcome %v, got %v", tt.want, got)
			}
		})
	}
}

// TestClosingOddsValidation tests the playable-quote check
func TestClosingOddsValidation(t *testing.T) {
	valid := &ClosingOdds{
		Home: decimal.NewFromFloat(2.10),
		Draw: decimal.NewFromFloat(3.40),
		Away: decimal.NewFromFloat(3.60),
	}
	if !valid.IsValid() {
		t.Error("expected valid closing odds")
	}

	atOne := &ClosingOdds{
		Home: decimal.NewFromInt(1),
		Draw: decimal.NewFromFloat(3.40),
		Away: decimal.NewFromFloat(3.60),
	}
	if atOne.IsValid() {
		t.Error("price of exactly 1.0 is not playable")
	}
}

// TestHasClosingOdds tests odds presence detection on a match
func TestHasClosingOdds(t *testing.T) {
	m := &Match{HomeTeam: "arsenal", AwayTeam: "chelsea"}
	if m.HasClosingOdds() {
		t.Error("match without odds should report none")
	}

	m.Closing = &ClosingOdds{
		Home: decimal.NewFromFloat(1.95),
		Draw: decimal.NewFromFloat(3.50),
		Away: decimal.NewFromFloat(4.20),
	}
	if !m.HasClosingOdds() {
		t.Error("match with valid odds should report them")
	}
}

// TestAgeDays tests age computation relative to a reference time
func TestAgeDays(t *testing.T) {
	ref := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m := &Match{MatchDate: ref.AddDate(0, 0, -30)}

	age := m.AgeDays(ref)
	if age < 29.9 || age > 30.1 {
		t.Errorf("expected age near 30 days, got %f", age)
	}
}

// TestRatingSetMeans tests population means and sorted iteration
func TestRatingSetMeans(t *testing.T) {
	rs := RatingSet{
		"b_team": {Team: "b_team", Attack: 1.2, Defense: 0.9},
		"a_team": {Team: "a_team", Attack: 0.8, Defense: 1.1},
	}

	teams := rs.Teams()
	if len(teams) != 2 || teams[0] != "a_team" || teams[1] != "b_team" {
		t.Errorf("expected sorted team ids, got %v", teams)
	}

	if mean := rs.MeanAttack(); mean != 1.0 {
		t.Errorf("expected mean attack 1.0, got %f", mean)
	}
	if mean := rs.MeanDefense(); mean != 1.0 {
		t.Errorf("expected mean defense 1.0, got %f", mean)
	}
}

// TestArtifactTransitions tests the legal lifecycle moves
func TestArtifactTransitions(t *testing.T) {
	tests := []struct {
		name string
		from ArtifactStatus
		to   ArtifactStatus
		want bool
	}{
		{"training to active", StatusTraining, StatusActive, true},
		{"training to failed", StatusTraining, StatusFailed, true},
		{"active to archived", StatusActive, StatusArchived, true},
		{"training to archived", StatusTraining, StatusArchived, false},
		{"archived to active", StatusArchived, StatusActive, false},
		{"failed to active", StatusFailed, StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &ModelArtifact{Status: tt.from}
			if got := a.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("transition %s -> %s: expected %v, got %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

// TestDrawSignalsValues tests that missing signals contribute nothing
func TestDrawSignalsValues(t *testing.T) {
	empty := &DrawSignals{}
	if vals := empty.Values(); len(vals) != 0 {
		t.Errorf("expected no values from empty bag, got %v", vals)
	}

	prior := 1.08
	weather := 1.05
	s := &DrawSignals{LeaguePrior: &prior, Weather: &weather}
	vals := s.Values()
	if len(vals) != 2 {
		t.Fatalf("expected 2 values, got %d", len(vals))
	}
	if vals[0] != prior || vals[1] != weather {
		t.Errorf("expected field-order values [%f %f], got %v", prior, weather, vals)
	}
}
