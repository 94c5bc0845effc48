package ratings

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/poisson"
)

// likelihoodTerm caches the per-match quantities that stay constant while
// the dependency parameter moves during the search.
type likelihoodTerm struct {
	homeGoals  int
	awayGoals  int
	lambdaHome float64
	lambdaAway float64
	weight     float64
	base       float64
}

func buildLikelihoodTerms(matches []models.Match, ratings models.RatingSet, homeAdvantage, decayRate float64, cutoff time.Time) ([]likelihoodTerm, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("no matches for likelihood evaluation: %w", models.ErrInsufficientData)
	}

	params := models.ModelParameters{HomeAdvantage: homeAdvantage}
	terms := make([]likelihoodTerm, 0, len(matches))
	for i := range matches {
		m := &matches[i]

		lambdaHome, lambdaAway, err := poisson.Lambdas(ratings, params, m.HomeTeam, m.AwayTeam)
		if err != nil {
			return nil, err
		}

		terms = append(terms, likelihoodTerm{
			homeGoals:  m.HomeGoals,
			awayGoals:  m.AwayGoals,
			lambdaHome: lambdaHome,
			lambdaAway: lambdaAway,
			weight:     decayWeight(m, decayRate, cutoff),
			base:       poisson.LogProb(lambdaHome, m.HomeGoals) + poisson.LogProb(lambdaAway, m.AwayGoals),
		})
	}
	return terms, nil
}

// weightedLogLikelihood sums the decay-weighted Dixon-Coles log-likelihood
// at the given dependency parameter. Adjustment terms are floored before the
// logarithm, so the sum is always finite.
func weightedLogLikelihood(terms []likelihoodTerm, rho float64) float64 {
	total := 0.0
	for i := range terms {
		t := &terms[i]
		tau := poisson.Tau(t.homeGoals, t.awayGoals, t.lambdaHome, t.lambdaAway, rho)
		total += t.weight * (t.base + math.Log(tau))
	}
	return total
}

// countTauClamps reports how many adjustment terms hit the floor at the
// given dependency parameter
func countTauClamps(terms []likelihoodTerm, rho float64) int {
	count := 0
	for i := range terms {
		t := &terms[i]
		if _, clamped := poisson.TauClamped(t.homeGoals, t.awayGoals, t.lambdaHome, t.lambdaAway, rho); clamped {
			count++
		}
	}
	return count
}

// goldenSectionMax runs a fixed number of golden-section steps over [lo, hi]
// and returns the midpoint of the final bracket
func goldenSectionMax(lo, hi float64, iterations int, f func(float64) float64) float64 {
	invPhi := (math.Sqrt(5) - 1) / 2

	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)

	for i := 0; i < iterations; i++ {
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}

	return (a + b) / 2
}
