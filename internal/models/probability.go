package models

import (
	"fmt"
	"math"
)

const probabilitySumTolerance = 1e-3

// ProbabilitySet represents a three-way outcome distribution for one fixture
// together with its provenance flags. The flags are set only through the
// constructors below: a heuristic set can never claim to be calibrated and is
// never allowed for decision support.
type ProbabilitySet struct {
	Home float64 `json:"home" validate:"gte=0,lte=1"`
	Draw float64 `json:"draw" validate:"gte=0,lte=1"`
	Away float64 `json:"away" validate:"gte=0,lte=1"`

	Calibrated                bool `json:"calibrated"`
	Heuristic                 bool `json:"heuristic"`
	AllowedForDecisionSupport bool `json:"allowed_for_decision_support"`

	// Explainability fields carried alongside the distribution.
	LambdaHome float64 `json:"lambda_home,omitempty"`
	LambdaAway float64 `json:"lambda_away,omitempty"`
	Entropy    float64 `json:"entropy,omitempty"`
}

// NewModelProbabilitySet builds an uncalibrated set straight from the model chain
func NewModelProbabilitySet(home, draw, away float64) (ProbabilitySet, error) {
	ps := ProbabilitySet{Home: home, Draw: draw, Away: away}
	if err := ps.check(); err != nil {
		return ProbabilitySet{}, err
	}
	return ps, nil
}

// NewCalibratedProbabilitySet builds a fully calibrated set, the only kind
// cleared for decision support
func NewCalibratedProbabilitySet(home, draw, away float64) (ProbabilitySet, error) {
	ps := ProbabilitySet{
		Home:                      home,
		Draw:                      draw,
		Away:                      away,
		Calibrated:                true,
		AllowedForDecisionSupport: true,
	}
	if err := ps.check(); err != nil {
		return ProbabilitySet{}, err
	}
	return ps, nil
}

// NewHeuristicProbabilitySet builds an exploratory set. Heuristic sets are
// informational only regardless of how they were produced.
func NewHeuristicProbabilitySet(home, draw, away float64) (ProbabilitySet, error) {
	ps := ProbabilitySet{Home: home, Draw: draw, Away: away, Heuristic: true}
	if err := ps.check(); err != nil {
		return ProbabilitySet{}, err
	}
	return ps, nil
}

func (ps *ProbabilitySet) check() error {
	for _, p := range []float64{ps.Home, ps.Draw, ps.Away} {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: probability %v out of range", ErrInvalidProbability, p)
		}
	}
	if sum := ps.Home + ps.Draw + ps.Away; math.Abs(sum-1.0) > probabilitySumTolerance {
		return fmt.Errorf("%w: probabilities sum to %v", ErrInvalidProbability, sum)
	}
	return nil
}

// Sum returns the total probability mass in the set
func (ps *ProbabilitySet) Sum() float64 {
	return ps.Home + ps.Draw + ps.Away
}

// MostLikely returns the outcome with the highest probability. Ties resolve
// in home, draw, away order so repeated calls always agree.
func (ps *ProbabilitySet) MostLikely() Outcome {
	switch {
	case ps.Home >= ps.Draw && ps.Home >= ps.Away:
		return OutcomeHome
	case ps.Draw >= ps.Away:
		return OutcomeDraw
	default:
		return OutcomeAway
	}
}

// Prob returns the probability assigned to the given outcome
func (ps *ProbabilitySet) Prob(o Outcome) float64 {
	switch o {
	case OutcomeHome:
		return ps.Home
	case OutcomeDraw:
		return ps.Draw
	default:
		return ps.Away
	}
}
