package models

import "sort"

// TeamRating represents the fitted attack and defense strengths for one team.
// Both values are positive multipliers around a population mean of 1.0.
type TeamRating struct {
	Team    string  `db:"team" json:"team" validate:"required"`
	Attack  float64 `db:"attack" json:"attack" validate:"gt=0"`
	Defense float64 `db:"defense" json:"defense" validate:"gt=0"`
	Matches int     `db:"matches" json:"matches" validate:"gte=0"`
	// Defaulted is set when the team had too few matches and kept the
	// league-average rating instead of a fitted one.
	Defaulted bool `db:"defaulted" json:"defaulted"`
}

// RatingSet represents the full set of team ratings produced by one fit
type RatingSet map[string]TeamRating

// Teams returns the team identifiers in sorted order. Map iteration order is
// randomized in Go, so every numeric pass over a RatingSet goes through this.
func (rs RatingSet) Teams() []string {
	teams := make([]string, 0, len(rs))
	for team := range rs {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	return teams
}

// MeanAttack returns the population mean of the attack ratings
func (rs RatingSet) MeanAttack() float64 {
	if len(rs) == 0 {
		return 0
	}
	sum := 0.0
	for _, team := range rs.Teams() {
		sum += rs[team].Attack
	}
	return sum / float64(len(rs))
}

// MeanDefense returns the population mean of the defense ratings
func (rs RatingSet) MeanDefense() float64 {
	if len(rs) == 0 {
		return 0
	}
	sum := 0.0
	for _, team := range rs.Teams() {
		sum += rs[team].Defense
	}
	return sum / float64(len(rs))
}

// DefaultedTeams returns the sorted identifiers of teams that kept the
// league-average rating
func (rs RatingSet) DefaultedTeams() []string {
	defaulted := make([]string, 0)
	for _, team := range rs.Teams() {
		if rs[team].Defaulted {
			defaulted = append(defaulted, team)
		}
	}
	return defaulted
}
