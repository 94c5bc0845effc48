// Package adjust applies the structural draw adjustment: a bounded composite
// of contextual fixture signals that scales the draw probability while the
// home and away mass absorbs the difference proportionally.
package adjust

import (
	"fmt"
	"math"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/poisson"
)

const (
	defaultMultiplierMin = 0.75
	defaultMultiplierMax = 1.35
	defaultMaxDrawShare  = 0.95
)

// Adjuster represents the configured draw-adjustment stage
type Adjuster struct {
	multiplierMin float64
	multiplierMax float64
	maxDrawShare  float64
}

// NewAdjuster builds an adjuster from the draw configuration
func NewAdjuster(cfg *config.DrawConfig) *Adjuster {
	a := &Adjuster{
		multiplierMin: cfg.MultiplierMin,
		multiplierMax: cfg.MultiplierMax,
		maxDrawShare:  cfg.MaxDrawShare,
	}

	if a.multiplierMin <= 0 || a.multiplierMax <= 0 || a.multiplierMin >= a.multiplierMax {
		a.multiplierMin, a.multiplierMax = defaultMultiplierMin, defaultMultiplierMax
	}
	if a.maxDrawShare <= 0 || a.maxDrawShare > 1 {
		a.maxDrawShare = defaultMaxDrawShare
	}
	return a
}

// Multiplier returns the clamped composite of the present signals. Missing
// signals are neutral, so a nil or empty bag returns exactly 1.0.
func (a *Adjuster) Multiplier(signals *models.DrawSignals) float64 {
	return clamp(rawMultiplier(signals), a.multiplierMin, a.multiplierMax)
}

// Apply scales the draw probability by the clamped signal composite and
// returns a new set with the same provenance flags as the input. The draw is
// capped so home and away always keep strictly positive mass, and the moved
// mass is split between them in proportion to their current share.
func (a *Adjuster) Apply(ps models.ProbabilitySet, signals *models.DrawSignals) (models.ProbabilitySet, error) {
	home, draw, away := a.redistribute(ps, a.Multiplier(signals))
	return rebuild(ps, home, draw, away)
}

// ApplyExploratory applies the raw, unclamped signal composite and returns a
// heuristic set. Exploratory output distorts probabilities on purpose and is
// never calibrated or cleared for decision support, whatever the caller does
// with it afterwards. The draw cap still applies so the set stays a valid
// distribution.
func (a *Adjuster) ApplyExploratory(ps models.ProbabilitySet, signals *models.DrawSignals) (models.ProbabilitySet, error) {
	home, draw, away := a.redistribute(ps, rawMultiplier(signals))

	out, err := models.NewHeuristicProbabilitySet(home, draw, away)
	if err != nil {
		return models.ProbabilitySet{}, fmt.Errorf("exploratory adjustment produced invalid set: %w", err)
	}
	out.LambdaHome, out.LambdaAway = ps.LambdaHome, ps.LambdaAway
	out.Entropy = poisson.Entropy(home, draw, away)
	return out, nil
}

// redistribute returns the adjusted trio. The draw moves first, then home
// and away scale by a common factor so the total mass is exactly preserved.
func (a *Adjuster) redistribute(ps models.ProbabilitySet, multiplier float64) (home, draw, away float64) {
	drawCap := a.maxDrawShare * (1.0 - math.Min(ps.Home, ps.Away))
	draw = clamp(ps.Draw*multiplier, 0.0, drawCap)

	delta := draw - ps.Draw
	rest := ps.Home + ps.Away
	if rest <= 0 {
		// All mass sat on the draw, so the freed mass has no proportions to
		// follow and splits evenly.
		home = -delta / 2.0
		away = -delta / 2.0
		return home, draw, away
	}

	scale := (rest - delta) / rest
	return ps.Home * scale, draw, ps.Away * scale
}

func rebuild(base models.ProbabilitySet, home, draw, away float64) (models.ProbabilitySet, error) {
	var (
		out models.ProbabilitySet
		err error
	)
	switch {
	case base.Heuristic:
		out, err = models.NewHeuristicProbabilitySet(home, draw, away)
	case base.Calibrated:
		out, err = models.NewCalibratedProbabilitySet(home, draw, away)
	default:
		out, err = models.NewModelProbabilitySet(home, draw, away)
	}
	if err != nil {
		return models.ProbabilitySet{}, fmt.Errorf("draw adjustment produced invalid set: %w", err)
	}

	out.LambdaHome, out.LambdaAway = base.LambdaHome, base.LambdaAway
	out.Entropy = poisson.Entropy(home, draw, away)
	return out, nil
}

func rawMultiplier(signals *models.DrawSignals) float64 {
	multiplier := 1.0
	if signals == nil {
		return multiplier
	}
	for _, v := range signals.Values() {
		multiplier *= v
	}
	return multiplier
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
