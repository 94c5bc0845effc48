// Package ratings fits team attack and defense strengths and the global
// Dixon-Coles parameters from historical match results.
package ratings

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/poisson"
)

const (
	defaultMaxIterations  = 100
	defaultConvergenceTol = 1e-6
	defaultMinMatches     = 5
)

// FitResult represents the outcome of one strength-fitting run
type FitResult struct {
	Ratings    models.RatingSet
	Iterations int
	MaxDelta   float64
	Converged  bool
}

// StrengthFitter fits multiplicative attack and defense ratings by iterative
// proportional fitting over a chronologically ordered match slice. The home
// advantage stays fixed at the configured prior while strengths move.
type StrengthFitter struct {
	decayRate     float64
	homeAdvantage float64
	maxIterations int
	tolerance     float64
	minMatches    int
}

// NewStrengthFitter builds a fitter from the model configuration
func NewStrengthFitter(cfg *config.ModelConfig) *StrengthFitter {
	f := &StrengthFitter{
		decayRate:     cfg.DecayRate,
		homeAdvantage: cfg.PriorHomeAdvantage,
		maxIterations: cfg.MaxIterations,
		tolerance:     cfg.ConvergenceTol,
		minMatches:    cfg.MinMatches,
	}

	if f.maxIterations <= 0 {
		f.maxIterations = defaultMaxIterations
	}
	if f.tolerance <= 0 {
		f.tolerance = defaultConvergenceTol
	}
	if f.minMatches <= 0 {
		f.minMatches = defaultMinMatches
	}
	return f
}

// Fit runs proportional-fitting sweeps until the maximum per-team relative
// change drops below the tolerance or the iteration cap is reached. Matches
// must be in chronological order; weights decay relative to the cutoff.
// Teams below the minimum match count keep the league-average rating and are
// reported through the Defaulted flag.
func (f *StrengthFitter) Fit(matches []models.Match, cutoff time.Time) (*FitResult, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("no matches in training window: %w", models.ErrInsufficientData)
	}

	weights := make([]float64, len(matches))
	for i := range matches {
		weights[i] = decayWeight(&matches[i], f.decayRate, cutoff)
	}

	counts := matchCounts(matches)
	teams := sortedTeams(counts)

	ratings := make(models.RatingSet, len(teams))
	for _, team := range teams {
		ratings[team] = models.TeamRating{
			Team:      team,
			Attack:    1.0,
			Defense:   1.0,
			Matches:   counts[team],
			Defaulted: counts[team] < f.minMatches,
		}
	}

	params := models.ModelParameters{HomeAdvantage: f.homeAdvantage}

	result := &FitResult{Ratings: ratings}
	for iter := 1; iter <= f.maxIterations; iter++ {
		maxDelta, err := f.sweep(matches, weights, ratings, teams, params)
		if err != nil {
			return nil, err
		}

		result.Iterations = iter
		result.MaxDelta = maxDelta
		if maxDelta < f.tolerance {
			result.Converged = true
			break
		}
	}

	return result, nil
}

// sweep performs one full update pass over every team and returns the
// maximum relative rating change including the rescale
func (f *StrengthFitter) sweep(matches []models.Match, weights []float64, ratings models.RatingSet, teams []string, params models.ModelParameters) (float64, error) {
	attackActual := make(map[string]float64, len(teams))
	attackExpected := make(map[string]float64, len(teams))
	defenseActual := make(map[string]float64, len(teams))
	defenseExpected := make(map[string]float64, len(teams))

	for i := range matches {
		m := &matches[i]
		w := weights[i]

		lambdaHome, lambdaAway, err := poisson.Lambdas(ratings, params, m.HomeTeam, m.AwayTeam)
		if err != nil {
			return 0, err
		}

		attackActual[m.HomeTeam] += w * float64(m.HomeGoals)
		attackExpected[m.HomeTeam] += w * lambdaHome
		defenseActual[m.HomeTeam] += w * float64(m.AwayGoals)
		defenseExpected[m.HomeTeam] += w * lambdaAway

		attackActual[m.AwayTeam] += w * float64(m.AwayGoals)
		attackExpected[m.AwayTeam] += w * lambdaAway
		defenseActual[m.AwayTeam] += w * float64(m.HomeGoals)
		defenseExpected[m.AwayTeam] += w * lambdaHome
	}

	// Multiplicative update for every fitted team. A zero actual total is a
	// valid signal and drives the rating toward the positive floor rather
	// than producing a singular value. Defaulted teams stay at the league
	// average but still shape the expectations above.
	updated := make(map[string]models.TeamRating, len(teams))
	for _, team := range teams {
		r := ratings[team]
		if r.Defaulted {
			updated[team] = r
			continue
		}

		next := r
		if attackExpected[team] > 0 {
			next.Attack = clampRating(r.Attack * attackActual[team] / attackExpected[team])
		}
		if defenseExpected[team] > 0 {
			next.Defense = clampRating(r.Defense * defenseActual[team] / defenseExpected[team])
		}
		updated[team] = next
	}

	rescale(updated, teams)

	maxDelta := 0.0
	for _, team := range teams {
		old := ratings[team]
		next := updated[team]
		if delta := math.Abs(next.Attack-old.Attack) / old.Attack; delta > maxDelta {
			maxDelta = delta
		}
		if delta := math.Abs(next.Defense-old.Defense) / old.Defense; delta > maxDelta {
			maxDelta = delta
		}
		ratings[team] = next
	}

	return maxDelta, nil
}

// rescale restores the exact mean-1.0 invariant over the fitted teams after
// a sweep. Defaulted teams are pinned at the league average already, so the
// population means land on 1.0 as well.
func rescale(updated map[string]models.TeamRating, teams []string) {
	var attackSum, defenseSum float64
	fitted := 0
	for _, team := range teams {
		r := updated[team]
		if r.Defaulted {
			continue
		}
		attackSum += r.Attack
		defenseSum += r.Defense
		fitted++
	}

	if fitted == 0 || attackSum <= 0 || defenseSum <= 0 {
		return
	}

	attackScale := float64(fitted) / attackSum
	defenseScale := float64(fitted) / defenseSum
	for _, team := range teams {
		r := updated[team]
		if r.Defaulted {
			continue
		}
		r.Attack = clampRating(r.Attack * attackScale)
		r.Defense = clampRating(r.Defense * defenseScale)
		updated[team] = r
	}
}

// clampRating keeps a rating strictly positive
func clampRating(v float64) float64 {
	if v < poisson.Epsilon {
		return poisson.Epsilon
	}
	return v
}

// decayWeight returns exp(-decayRate * ageDays) relative to the cutoff. A
// future-dated match gets the cutoff weight rather than a weight above one.
func decayWeight(m *models.Match, decayRate float64, cutoff time.Time) float64 {
	age := m.AgeDays(cutoff)
	if age < 0 {
		age = 0
	}
	return math.Exp(-decayRate * age)
}

func matchCounts(matches []models.Match) map[string]int {
	counts := make(map[string]int)
	for i := range matches {
		counts[matches[i].HomeTeam]++
		counts[matches[i].AwayTeam]++
	}
	return counts
}

// sortedTeams returns the team identifiers in sorted order so every sweep
// walks the population deterministically
func sortedTeams(counts map[string]int) []string {
	teams := make([]string, 0, len(counts))
	for team := range counts {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	return teams
}
