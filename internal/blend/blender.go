// Package blend combines model probabilities with the market view implied by
// closing odds.
//
// The blend weight is one global scalar learned per model artifact from a
// coarse grid search on a held-out validation split. It is not per-league
// and it does not adapt between retrains; every fixture scored by an
// artifact uses the same weight.
package blend

import (
	"fmt"
	"math"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/evaluation"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/poisson"
)

const defaultAlphaStep = 0.1

// ImpliedProbabilities inverts three-way decimal closing odds and strips the
// bookmaker overround so the fair probabilities sum to one
func ImpliedProbabilities(odds *models.ClosingOdds) (home, draw, away float64, err error) {
	if odds == nil || !odds.IsValid() {
		return 0, 0, 0, models.ErrMissingOdds
	}

	h, d, a := odds.Floats()
	rawHome := 1.0 / h
	rawDraw := 1.0 / d
	rawAway := 1.0 / a
	total := rawHome + rawDraw + rawAway
	return rawHome / total, rawDraw / total, rawAway / total, nil
}

// Overround returns the bookmaker margin baked into the odds: the sum of the
// raw inverse prices minus one
func Overround(odds *models.ClosingOdds) (float64, error) {
	if odds == nil || !odds.IsValid() {
		return 0, models.ErrMissingOdds
	}

	h, d, a := odds.Floats()
	return 1.0/h + 1.0/d + 1.0/a - 1.0, nil
}

// Mix returns alpha*model + (1-alpha)*market elementwise. Both inputs sum to
// one, so the result needs no renormalization. The output carries the model
// set's provenance flags and lambda pair; entropy is recomputed for the
// blended distribution.
func Mix(model models.ProbabilitySet, odds *models.ClosingOdds, alpha float64) (models.ProbabilitySet, error) {
	if alpha < 0 || alpha > 1 {
		return models.ProbabilitySet{}, fmt.Errorf("blend weight %v outside [0, 1]", alpha)
	}

	marketHome, marketDraw, marketAway, err := ImpliedProbabilities(odds)
	if err != nil {
		return models.ProbabilitySet{}, err
	}

	home := alpha*model.Home + (1.0-alpha)*marketHome
	draw := alpha*model.Draw + (1.0-alpha)*marketDraw
	away := alpha*model.Away + (1.0-alpha)*marketAway

	var out models.ProbabilitySet
	switch {
	case model.Heuristic:
		out, err = models.NewHeuristicProbabilitySet(home, draw, away)
	case model.Calibrated:
		out, err = models.NewCalibratedProbabilitySet(home, draw, away)
	default:
		out, err = models.NewModelProbabilitySet(home, draw, away)
	}
	if err != nil {
		return models.ProbabilitySet{}, fmt.Errorf("blend produced invalid set: %w", err)
	}

	out.LambdaHome, out.LambdaAway = model.LambdaHome, model.LambdaAway
	out.Entropy = poisson.Entropy(home, draw, away)
	return out, nil
}

// Candidate pairs one validation fixture's model forecast with its market
// prices and realized outcome
type Candidate struct {
	Model   models.ProbabilitySet
	Odds    *models.ClosingOdds
	Outcome models.Outcome
}

// Blender learns and applies the global blend weight
type Blender struct {
	step         float64
	defaultAlpha float64
}

// NewBlender builds a blender from the blend configuration
func NewBlender(cfg *config.BlendConfig) *Blender {
	b := &Blender{
		step:         cfg.AlphaStep,
		defaultAlpha: cfg.DefaultAlpha,
	}

	if b.step <= 0 || b.step > 0.5 {
		b.step = defaultAlphaStep
	}
	if b.defaultAlpha < 0 || b.defaultAlpha > 1 {
		b.defaultAlpha = models.DefaultParameters().BlendAlpha
	}
	return b
}

// LearnAlpha sweeps the weight grid from 0 to 1 and returns the value with
// the lowest Brier score over the blendable candidates. Candidates without
// playable odds never influence the sweep; when none carry odds the
// configured default comes back with learned=false. Ties keep the lower
// weight so repeated sweeps always agree.
func (b *Blender) LearnAlpha(candidates []Candidate) (alpha float64, learned bool) {
	blendable := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Odds != nil && c.Odds.IsValid() {
			blendable = append(blendable, c)
		}
	}
	if len(blendable) == 0 {
		return b.defaultAlpha, false
	}

	steps := int(math.Ceil(1.0/b.step - 1e-9))
	best := 0.0
	bestScore := math.Inf(1)
	for k := 0; k <= steps; k++ {
		candidate := math.Min(float64(k)*b.step, 1.0)
		if score := b.scoreAlpha(blendable, candidate); score < bestScore {
			bestScore = score
			best = candidate
		}
	}
	return best, true
}

func (b *Blender) scoreAlpha(candidates []Candidate, alpha float64) float64 {
	samples := make([]evaluation.Sample, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		blended, err := Mix(c.Model, c.Odds, alpha)
		if err != nil {
			continue
		}
		samples = append(samples, evaluation.Sample{Probabilities: blended, Outcome: c.Outcome})
	}
	return evaluation.BrierScore(samples)
}
