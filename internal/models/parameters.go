package models

import "math"

// ModelParameters represents the global parameters of a fitted model.
// HomeAdvantage is stored on the log scale; the multiplicative factor applied
// to the home goal expectation is exp(HomeAdvantage).
type ModelParameters struct {
	HomeAdvantage float64 `db:"home_advantage" json:"home_advantage"`
	Rho           float64 `db:"rho" json:"rho" validate:"gte=-1,lte=1"`
	DecayRate     float64 `db:"decay_rate" json:"decay_rate" validate:"gte=0"`
	BlendAlpha    float64 `db:"blend_alpha" json:"blend_alpha" validate:"gte=0,lte=1"`
	MaxGoals      int     `db:"max_goals" json:"max_goals" validate:"gt=0"`
}

// HomeFactor returns the multiplicative home-advantage factor exp(HomeAdvantage)
func (p *ModelParameters) HomeFactor() float64 {
	return math.Exp(p.HomeAdvantage)
}

// DefaultParameters returns the parameter set used before any fitting has run
func DefaultParameters() ModelParameters {
	return ModelParameters{
		HomeAdvantage: 0.25,
		Rho:           -0.05,
		DecayRate:     0.0065,
		BlendAlpha:    0.7,
		MaxGoals:      10,
	}
}
