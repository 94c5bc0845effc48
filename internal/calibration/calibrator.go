package calibration

import (
	"encoding/json"
	"fmt"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/poisson"
)

const (
	defaultMinHomeSamples = 200
	defaultMinDrawSamples = 400
	defaultMinAwaySamples = 200
)

// outcomeLabels fixes the order outcomes are reported in metadata
var outcomeLabels = []models.Outcome{models.OutcomeHome, models.OutcomeDraw, models.OutcomeAway}

// Observation pairs one forecast with the realized outcome for curve fitting
type Observation struct {
	Probabilities models.ProbabilitySet
	Outcome       models.Outcome
}

// Calibrator holds the three per-outcome curves. Draws are the rarest outcome
// and get a higher sample minimum before their curve counts as fitted; an
// unfitted outcome passes through numerically unchanged.
type Calibrator struct {
	home *Curve
	draw *Curve
	away *Curve
}

// NewCalibrator builds an unfitted calibrator from the configured minimums
func NewCalibrator(cfg *config.CalibrationConfig) *Calibrator {
	minHome, minDraw, minAway := cfg.MinHomeSamples, cfg.MinDrawSamples, cfg.MinAwaySamples
	if minHome <= 0 {
		minHome = defaultMinHomeSamples
	}
	if minDraw <= 0 {
		minDraw = defaultMinDrawSamples
	}
	if minAway <= 0 {
		minAway = defaultMinAwaySamples
	}

	return &Calibrator{
		home: NewCurve(minHome),
		draw: NewCurve(minDraw),
		away: NewCurve(minAway),
	}
}

// Fit fits each outcome's curve independently from the same observation set.
// Every observation contributes one (predicted, occurred) pair to every
// curve; an outcome whose minimum is not met simply stays unfitted.
func (c *Calibrator) Fit(observations []Observation) error {
	for _, outcome := range outcomeLabels {
		samples := make([]Sample, 0, len(observations))
		for i := range observations {
			o := &observations[i]
			samples = append(samples, Sample{
				Predicted: o.Probabilities.Prob(outcome),
				Occurred:  o.Outcome == outcome,
			})
		}

		if err := c.curve(outcome).Fit(samples); err != nil {
			return fmt.Errorf("failed to fit %s calibration curve: %w", outcomeName(outcome), err)
		}
	}
	return nil
}

// Apply maps each outcome through its curve and renormalizes the trio back
// onto the simplex. Unfitted outcomes keep their input value before the
// renormalization. A heuristic input stays heuristic whatever the curves
// say; otherwise the output is calibrated as soon as any curve is fitted.
func (c *Calibrator) Apply(ps models.ProbabilitySet) (models.ProbabilitySet, error) {
	home := c.home.Predict(ps.Home)
	draw := c.draw.Predict(ps.Draw)
	away := c.away.Predict(ps.Away)

	sum := home + draw + away
	if sum <= 0 {
		return models.ProbabilitySet{}, fmt.Errorf("%w: calibrated mass collapsed to %v", models.ErrInvalidProbability, sum)
	}
	home, draw, away = home/sum, draw/sum, away/sum

	var (
		out models.ProbabilitySet
		err error
	)
	switch {
	case ps.Heuristic:
		out, err = models.NewHeuristicProbabilitySet(home, draw, away)
	case c.AnyFitted():
		out, err = models.NewCalibratedProbabilitySet(home, draw, away)
	default:
		out, err = models.NewModelProbabilitySet(home, draw, away)
	}
	if err != nil {
		return models.ProbabilitySet{}, fmt.Errorf("calibration produced invalid set: %w", err)
	}

	out.LambdaHome, out.LambdaAway = ps.LambdaHome, ps.LambdaAway
	out.Entropy = poisson.Entropy(home, draw, away)
	return out, nil
}

// AnyFitted reports whether at least one outcome curve is usable
func (c *Calibrator) AnyFitted() bool {
	return c.home.IsFitted() || c.draw.IsFitted() || c.away.IsFitted()
}

// FittedOutcomes returns the outcomes whose curves met their sample minimum,
// in home, draw, away order. The artifact records this list so consumers can
// tell which marginals were actually calibrated.
func (c *Calibrator) FittedOutcomes() []string {
	fitted := make([]string, 0, len(outcomeLabels))
	for _, outcome := range outcomeLabels {
		if c.curve(outcome).IsFitted() {
			fitted = append(fitted, outcomeName(outcome))
		}
	}
	return fitted
}

// UnfittedOutcomes returns the outcomes that pass through uncalibrated
func (c *Calibrator) UnfittedOutcomes() []string {
	unfitted := make([]string, 0, len(outcomeLabels))
	for _, outcome := range outcomeLabels {
		if !c.curve(outcome).IsFitted() {
			unfitted = append(unfitted, outcomeName(outcome))
		}
	}
	return unfitted
}

// calibratorJSON is the artifact storage shape of the three curves
type calibratorJSON struct {
	Home *Curve `json:"home"`
	Draw *Curve `json:"draw"`
	Away *Curve `json:"away"`
}

// Marshal serializes the calibrator for storage on a model artifact
func (c *Calibrator) Marshal() ([]byte, error) {
	data, err := json.Marshal(calibratorJSON{Home: c.home, Draw: c.draw, Away: c.away})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calibrator: %w", err)
	}
	return data, nil
}

// Unmarshal restores a calibrator from artifact storage. Empty payloads come
// back as a fully unfitted calibrator, which applies as pass-through.
func Unmarshal(data []byte) (*Calibrator, error) {
	c := &Calibrator{
		home: NewCurve(defaultMinHomeSamples),
		draw: NewCurve(defaultMinDrawSamples),
		away: NewCurve(defaultMinAwaySamples),
	}
	if len(data) == 0 {
		return c, nil
	}

	stored := calibratorJSON{Home: c.home, Draw: c.draw, Away: c.away}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calibrator: %w", err)
	}
	return &Calibrator{home: stored.Home, draw: stored.Draw, away: stored.Away}, nil
}

func (c *Calibrator) curve(outcome models.Outcome) *Curve {
	switch outcome {
	case models.OutcomeHome:
		return c.home
	case models.OutcomeDraw:
		return c.draw
	default:
		return c.away
	}
}

func outcomeName(outcome models.Outcome) string {
	switch outcome {
	case models.OutcomeHome:
		return "home"
	case models.OutcomeDraw:
		return "draw"
	default:
		return "away"
	}
}
