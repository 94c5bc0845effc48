package ratings

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/poisson"
)

const (
	// halfGoalFloor replaces a zero goal count inside the log residual. Half
	// a goal is the usual continuity correction for count data.
	halfGoalFloor = 0.5

	// goldenSectionIterations fixes the search depth so the optimizer always
	// visits the same probe points for the same inputs.
	goldenSectionIterations = 80

	defaultRhoMin = -0.3
	defaultRhoMax = 0.1
)

// ParameterEstimator estimates the global home advantage and the Dixon-Coles
// dependency parameter with the team ratings held fixed.
type ParameterEstimator struct {
	decayRate  float64
	rhoMin     float64
	rhoMax     float64
	iterations int
}

// NewParameterEstimator builds an estimator from the model configuration
func NewParameterEstimator(cfg *config.ModelConfig) *ParameterEstimator {
	e := &ParameterEstimator{
		decayRate:  cfg.DecayRate,
		rhoMin:     cfg.RhoMin,
		rhoMax:     cfg.RhoMax,
		iterations: goldenSectionIterations,
	}

	if e.rhoMin >= e.rhoMax {
		e.rhoMin, e.rhoMax = defaultRhoMin, defaultRhoMax
	}
	return e
}

// HomeAdvantage returns the log-scale home advantage as the decay-weighted
// mean of log residuals of actual against expected home goals. The half-goal
// floor keeps matches with no home goals inside the log domain.
func (e *ParameterEstimator) HomeAdvantage(matches []models.Match, ratings models.RatingSet, cutoff time.Time) (float64, error) {
	if len(matches) == 0 {
		return 0, fmt.Errorf("no matches for home-advantage estimate: %w", models.ErrInsufficientData)
	}

	var weightedSum, weightTotal float64
	for i := range matches {
		m := &matches[i]

		home, ok := ratings[m.HomeTeam]
		if !ok {
			return 0, fmt.Errorf("no rating for home team %s: %w", m.HomeTeam, models.ErrNotFound)
		}
		away, ok := ratings[m.AwayTeam]
		if !ok {
			return 0, fmt.Errorf("no rating for away team %s: %w", m.AwayTeam, models.ErrNotFound)
		}

		expected := math.Max(home.Attack*away.Defense, poisson.Epsilon)
		actual := math.Max(float64(m.HomeGoals), halfGoalFloor)

		w := decayWeight(m, e.decayRate, cutoff)
		weightedSum += w * math.Log(actual/expected)
		weightTotal += w
	}

	if weightTotal <= 0 {
		return 0, fmt.Errorf("zero total weight for home-advantage estimate: %w", models.ErrInsufficientData)
	}
	return weightedSum / weightTotal, nil
}

// RhoEstimate represents the optimized dependency parameter together with
// the likelihood diagnostics recorded at the optimum
type RhoEstimate struct {
	Rho           float64
	LogLikelihood float64
	ClampCount    int
}

// Rho maximizes the decay-weighted Dixon-Coles log-likelihood over the
// configured interval using a fixed-depth golden-section search. Ratings and
// home advantage are held fixed; only the dependency parameter moves.
// ClampCount reports how many adjustment terms sat on the floor at the
// optimum, which callers surface as a warning signal.
func (e *ParameterEstimator) Rho(matches []models.Match, ratings models.RatingSet, homeAdvantage float64, cutoff time.Time) (*RhoEstimate, error) {
	terms, err := buildLikelihoodTerms(matches, ratings, homeAdvantage, e.decayRate, cutoff)
	if err != nil {
		return nil, err
	}

	rho := goldenSectionMax(e.rhoMin, e.rhoMax, e.iterations, func(rho float64) float64 {
		return weightedLogLikelihood(terms, rho)
	})

	return &RhoEstimate{
		Rho:           rho,
		LogLikelihood: weightedLogLikelihood(terms, rho),
		ClampCount:    countTauClamps(terms, rho),
	}, nil
}
