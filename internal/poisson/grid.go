// Package poisson turns fitted team ratings into three-way match outcome
// probabilities using a Dixon-Coles adjusted bivariate Poisson score grid.
package poisson

import (
	"fmt"
	"math"

	"github.com/yourusername/goalodds/internal/models"
)

// Epsilon is the floor applied to Dixon-Coles adjustment terms and goal
// expectations before they reach a probability or a logarithm. The low-score
// adjustment expressions can turn non-positive for extreme parameters.
const Epsilon = 1e-10

// Grid represents the score distribution for one fixture, truncated at
// maxGoals goals per side and renormalized after the low-score adjustment.
type Grid struct {
	maxGoals   int
	lambdaHome float64
	lambdaAway float64
	cells      [][]float64
}

// Lambdas computes the expected goals for a fixture from fitted ratings.
// The home expectation picks up the multiplicative home-advantage factor.
// Both values are floored at Epsilon so a degenerate rating product can
// never produce a non-positive expectation.
func Lambdas(ratings models.RatingSet, params models.ModelParameters, homeTeam, awayTeam string) (float64, float64, error) {
	home, ok := ratings[homeTeam]
	if !ok {
		return 0, 0, fmt.Errorf("no rating for home team %s: %w", homeTeam, models.ErrNotFound)
	}
	away, ok := ratings[awayTeam]
	if !ok {
		return 0, 0, fmt.Errorf("no rating for away team %s: %w", awayTeam, models.ErrNotFound)
	}

	lambdaHome := home.Attack * away.Defense * params.HomeFactor()
	lambdaAway := away.Attack * home.Defense
	return math.Max(lambdaHome, Epsilon), math.Max(lambdaAway, Epsilon), nil
}

// NewGrid builds the adjusted score grid for the given goal expectations.
// A non-positive maxGoals falls back to the default grid size.
func NewGrid(lambdaHome, lambdaAway, rho float64, maxGoals int) *Grid {
	if maxGoals <= 0 {
		maxGoals = models.DefaultParameters().MaxGoals
	}

	g := &Grid{
		maxGoals:   maxGoals,
		lambdaHome: lambdaHome,
		lambdaAway: lambdaAway,
		cells:      make([][]float64, maxGoals+1),
	}

	total := 0.0
	for hg := 0; hg <= maxGoals; hg++ {
		g.cells[hg] = make([]float64, maxGoals+1)
		for ag := 0; ag <= maxGoals; ag++ {
			p := Prob(lambdaHome, hg) * Prob(lambdaAway, ag) * Tau(hg, ag, lambdaHome, lambdaAway, rho)
			g.cells[hg][ag] = p
			total += p
		}
	}

	// Truncation and the low-score adjustment both move mass, so the grid is
	// renormalized to sum to one.
	if total > 0 {
		for hg := 0; hg <= maxGoals; hg++ {
			for ag := 0; ag <= maxGoals; ag++ {
				g.cells[hg][ag] /= total
			}
		}
	}

	return g
}

// Outcomes aggregates the score grid into home win, draw and away win
func (g *Grid) Outcomes() (home, draw, away float64) {
	for hg := 0; hg <= g.maxGoals; hg++ {
		for ag := 0; ag <= g.maxGoals; ag++ {
			p := g.cells[hg][ag]
			switch {
			case hg > ag:
				home += p
			case hg == ag:
				draw += p
			default:
				away += p
			}
		}
	}
	return home, draw, away
}

// CorrectScore returns the probability of an exact scoreline
func (g *Grid) CorrectScore(homeGoals, awayGoals int) float64 {
	if homeGoals < 0 || homeGoals > g.maxGoals || awayGoals < 0 || awayGoals > g.maxGoals {
		return 0
	}
	return g.cells[homeGoals][awayGoals]
}

// ExpectedGoals returns the goal expectations the grid was built from
func (g *Grid) ExpectedGoals() (float64, float64) {
	return g.lambdaHome, g.lambdaAway
}

// MaxGoals returns the per-side truncation bound of the grid
func (g *Grid) MaxGoals() int {
	return g.maxGoals
}

// MatchProbabilities runs the closed-form chain for one fixture and returns
// an uncalibrated model probability set with its explainability fields filled.
func MatchProbabilities(ratings models.RatingSet, params models.ModelParameters, homeTeam, awayTeam string) (models.ProbabilitySet, error) {
	lambdaHome, lambdaAway, err := Lambdas(ratings, params, homeTeam, awayTeam)
	if err != nil {
		return models.ProbabilitySet{}, err
	}

	grid := NewGrid(lambdaHome, lambdaAway, params.Rho, params.MaxGoals)
	home, draw, away := grid.Outcomes()

	ps, err := models.NewModelProbabilitySet(home, draw, away)
	if err != nil {
		return models.ProbabilitySet{}, err
	}
	ps.LambdaHome = lambdaHome
	ps.LambdaAway = lambdaAway
	ps.Entropy = Entropy(home, draw, away)
	return ps, nil
}

// Tau returns the Dixon-Coles low-score adjustment for a scoreline. Scores
// with either side above one goal are left independent and return 1.0.
func Tau(homeGoals, awayGoals int, lambdaHome, lambdaAway, rho float64) float64 {
	tau, _ := TauClamped(homeGoals, awayGoals, lambdaHome, lambdaAway, rho)
	return tau
}

// TauClamped returns the adjustment together with whether the Epsilon floor
// replaced a non-positive term. The training likelihood counts those events.
func TauClamped(homeGoals, awayGoals int, lambdaHome, lambdaAway, rho float64) (float64, bool) {
	tau := 1.0
	switch {
	case homeGoals == 0 && awayGoals == 0:
		tau = 1.0 - lambdaHome*lambdaAway*rho
	case homeGoals == 0 && awayGoals == 1:
		tau = 1.0 + lambdaHome*rho
	case homeGoals == 1 && awayGoals == 0:
		tau = 1.0 + lambdaAway*rho
	case homeGoals == 1 && awayGoals == 1:
		tau = 1.0 - rho
	default:
		return 1.0, false
	}

	if tau < Epsilon {
		return Epsilon, true
	}
	return tau, false
}

// Prob returns the Poisson probability P(X = k) for X with mean lambda,
// computed in log space to stay stable for large k.
func Prob(lambda float64, k int) float64 {
	if k < 0 {
		return 0.0
	}
	if lambda <= 0 {
		if k == 0 {
			return 1.0
		}
		return 0.0
	}
	return math.Exp(float64(k)*math.Log(lambda) - lambda - logFactorial(k))
}

// LogProb returns the log of the Poisson probability mass at k. The mean is
// floored at Epsilon so the result stays finite for any k >= 0, which keeps
// likelihood sums well defined under degenerate ratings.
func LogProb(lambda float64, k int) float64 {
	if k < 0 {
		return math.Inf(-1)
	}
	if lambda < Epsilon {
		lambda = Epsilon
	}
	return float64(k)*math.Log(lambda) - lambda - logFactorial(k)
}

// Entropy returns the Shannon entropy in nats of a three-outcome distribution
func Entropy(home, draw, away float64) float64 {
	entropy := 0.0
	for _, p := range []float64{home, draw, away} {
		if p > 0 {
			entropy -= p * math.Log(p)
		}
	}
	return entropy
}

// logFactorial computes log(n!), switching to Stirling's approximation once
// the direct product stops being cheap
func logFactorial(n int) float64 {
	if n < 2 {
		return 0.0
	}

	if n < 10 {
		result := 0.0
		for i := 2; i <= n; i++ {
			result += math.Log(float64(i))
		}
		return result
	}

	nf := float64(n)
	return nf*math.Log(nf) - nf + 0.5*math.Log(2*math.Pi*nf)
}
