// Package calibration maps raw outcome probabilities onto observed
// frequencies with per-outcome isotonic regression.
//
// Calibration here is marginal: each outcome gets its own independently
// fitted monotone curve and the three mapped values are renormalized
// afterwards. The curves are never jointly consistent across the simplex
// and no joint recalibration is attempted.
package calibration

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Sample pairs one predicted probability with whether the outcome occurred.
type Sample struct {
	Predicted float64 `json:"predicted"`
	Occurred  bool    `json:"occurred"`
}

// Curve is one fitted monotone probability map. The knots are produced by
// pool-adjacent-violators over binned samples; prediction interpolates
// linearly between them. A zero-valued Curve passes input through unchanged.
type Curve struct {
	knots       []float64
	values      []float64
	sampleCount int
	minSamples  int
}

// curveJSON is the storage shape of a fitted curve inside a model artifact.
type curveJSON struct {
	Knots       []float64 `json:"knots"`
	Values      []float64 `json:"values"`
	SampleCount int       `json:"sample_count"`
	MinSamples  int       `json:"min_samples"`
}

// NewCurve creates an unfitted curve with the given sample minimum
func NewCurve(minSamples int) *Curve {
	return &Curve{minSamples: minSamples}
}

// Fit bins the samples by predicted probability, estimates the observed
// frequency per bin and enforces monotonicity with pool-adjacent-violators.
// Fewer samples than the minimum leaves the curve unfitted; callers treat
// that as pass-through rather than an error.
func (c *Curve) Fit(samples []Sample) error {
	if len(samples) < c.minSamples {
		return nil
	}

	ordered := make([]Sample, len(samples))
	copy(ordered, samples)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Predicted < ordered[j].Predicted
	})

	bins := createBins(ordered)
	if len(bins) == 0 {
		return fmt.Errorf("binning produced no calibration points from %d samples", len(samples))
	}

	knots, values := poolAdjacentViolators(bins)
	c.knots = knots
	c.values = values
	c.sampleCount = len(samples)
	return nil
}

// Predict maps a predicted probability through the fitted curve. An unfitted
// curve returns the input unchanged; outside the knot range the curve is
// extended flat.
func (c *Curve) Predict(p float64) float64 {
	if !c.IsFitted() {
		return p
	}

	if p <= c.knots[0] {
		return c.values[0]
	}
	last := len(c.knots) - 1
	if p >= c.knots[last] {
		return c.values[last]
	}

	for i := 1; i <= last; i++ {
		if p <= c.knots[i] {
			x0, x1 := c.knots[i-1], c.knots[i]
			y0, y1 := c.values[i-1], c.values[i]
			if x1 == x0 {
				return y1
			}
			weight := (p - x0) / (x1 - x0)
			return y0 + weight*(y1-y0)
		}
	}

	return c.values[last]
}

// IsFitted reports whether the curve carries a usable knot set
func (c *Curve) IsFitted() bool {
	return len(c.knots) > 0 && len(c.knots) == len(c.values) && c.sampleCount >= c.minSamples
}

// SampleCount returns how many samples the curve was fitted on
func (c *Curve) SampleCount() int {
	return c.sampleCount
}

// MarshalJSON serializes the fitted curve for artifact storage
func (c *Curve) MarshalJSON() ([]byte, error) {
	return json.Marshal(curveJSON{
		Knots:       c.knots,
		Values:      c.values,
		SampleCount: c.sampleCount,
		MinSamples:  c.minSamples,
	})
}

// UnmarshalJSON restores a curve from artifact storage
func (c *Curve) UnmarshalJSON(data []byte) error {
	var stored curveJSON
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to unmarshal calibration curve: %w", err)
	}
	if len(stored.Knots) != len(stored.Values) {
		return fmt.Errorf("calibration curve has %d knots but %d values", len(stored.Knots), len(stored.Values))
	}

	c.knots = stored.Knots
	c.values = stored.Values
	c.sampleCount = stored.SampleCount
	c.minSamples = stored.MinSamples
	return nil
}

// bin is one group of neighbouring samples and its observed frequency
type bin struct {
	meanPredicted float64
	frequency     float64
	count         int
}

// createBins groups score-ordered samples into equal-count bins
func createBins(ordered []Sample) []bin {
	numBins := optimalBins(len(ordered))
	if numBins == 0 {
		return nil
	}
	binSize := len(ordered) / numBins
	if binSize == 0 {
		binSize = 1
	}

	bins := make([]bin, 0, numBins)
	for start := 0; start < len(ordered); start += binSize {
		end := start + binSize
		if end > len(ordered) {
			end = len(ordered)
		}

		var predictedSum float64
		occurred := 0
		for _, s := range ordered[start:end] {
			predictedSum += s.Predicted
			if s.Occurred {
				occurred++
			}
		}

		count := end - start
		bins = append(bins, bin{
			meanPredicted: predictedSum / float64(count),
			frequency:     float64(occurred) / float64(count),
			count:         count,
		})
	}
	return bins
}

// optimalBins sizes the binning from the sample count: Sturges' rule bounded
// so every bin keeps enough samples for a stable frequency estimate
func optimalBins(sampleCount int) int {
	if sampleCount == 0 {
		return 0
	}

	const (
		minBins       = 5
		maxBins       = 50
		minPerBinSize = 10
	)

	bins := int(math.Ceil(math.Log2(float64(sampleCount)))) + 1
	if bins < minBins {
		bins = minBins
	}
	if bins > maxBins {
		bins = maxBins
	}
	if byCount := sampleCount / minPerBinSize; bins > byCount && byCount >= minBins {
		bins = byCount
	}
	return bins
}

// poolAdjacentViolators enforces a non-decreasing frequency sequence by
// merging violating neighbours, weighted by bin size
func poolAdjacentViolators(bins []bin) (knots, values []float64) {
	knots = make([]float64, len(bins))
	values = make([]float64, len(bins))
	weights := make([]float64, len(bins))
	for i, b := range bins {
		knots[i] = b.meanPredicted
		values[i] = b.frequency
		weights[i] = float64(b.count)
	}

	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			pool(values, weights, knots, i)
			// Pooling can expose a violation further back, so restart.
			i = 0
		}
	}
	return knots, values
}

// pool merges the run of bins around the violation into their weighted mean
func pool(values, weights, knots []float64, violator int) {
	start := violator - 1
	end := violator

	for start > 0 && values[start] > values[start-1] {
		start--
	}
	for end < len(values)-1 && values[end] > values[end+1] {
		end++
	}

	var totalWeight, valueSum, knotSum float64
	for i := start; i <= end; i++ {
		totalWeight += weights[i]
		valueSum += weights[i] * values[i]
		knotSum += weights[i] * knots[i]
	}

	pooledValue := valueSum / totalWeight
	pooledKnot := knotSum / totalWeight
	for i := start; i <= end; i++ {
		values[i] = pooledValue
		knots[i] = pooledKnot
	}
}
