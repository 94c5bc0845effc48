package calibration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// levelSamples builds count samples all predicted at p, of which exactly
// occurred carry a positive outcome
func levelSamples(p float64, count, occurred int) []Sample {
	samples := make([]Sample, count)
	for i := range samples {
		samples[i] = Sample{Predicted: p, Occurred: i < occurred}
	}
	return samples
}

// rampSamples builds an overconfident forecast history: predictions sweep
// levels between 0.1 and 0.9 while outcomes occur at only 60% of the
// predicted rate. The stride keeps occurrences deterministic.
func rampSamples(n int) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i%40) / 39.0
		predicted := 0.1 + 0.8*t
		threshold := int(100 * 0.6 * predicted)
		samples = append(samples, Sample{
			Predicted: predicted,
			Occurred:  (i*37)%100 < threshold,
		})
	}
	return samples
}

func TestCurveUnfittedPassesThrough(t *testing.T) {
	curve := NewCurve(200)

	require.NoError(t, curve.Fit(levelSamples(0.5, 50, 25)))

	assert.False(t, curve.IsFitted())
	assert.Equal(t, 0.37, curve.Predict(0.37))
	assert.Equal(t, 0.91, curve.Predict(0.91))
}

func TestCurveShrinksOverconfidentForecasts(t *testing.T) {
	curve := NewCurve(200)

	require.NoError(t, curve.Fit(rampSamples(800)))
	require.True(t, curve.IsFitted())

	// The history realizes at 60% of the predicted rate, so the mapped value
	// must sit clearly below the raw forecast in the middle of the range.
	assert.Less(t, curve.Predict(0.8), 0.8)
	assert.InDelta(t, 0.48, curve.Predict(0.8), 0.12)
	assert.Equal(t, 800, curve.SampleCount())
}

func TestCurvePredictIsMonotone(t *testing.T) {
	curve := NewCurve(100)

	require.NoError(t, curve.Fit(rampSamples(600)))
	require.True(t, curve.IsFitted())

	prev := curve.Predict(0.0)
	for p := 0.01; p <= 1.0; p += 0.01 {
		next := curve.Predict(p)
		assert.GreaterOrEqual(t, next, prev, "curve decreased at %v", p)
		prev = next
	}
}

func TestCurveExtendsFlatOutsideKnots(t *testing.T) {
	curve := NewCurve(100)

	require.NoError(t, curve.Fit(rampSamples(600)))
	require.True(t, curve.IsFitted())

	assert.Equal(t, curve.Predict(0.0), curve.Predict(-5.0))
	assert.Equal(t, curve.Predict(1.0), curve.Predict(5.0))
}

func TestCurveFitDeterministic(t *testing.T) {
	first := NewCurve(100)
	second := NewCurve(100)

	require.NoError(t, first.Fit(rampSamples(600)))
	require.NoError(t, second.Fit(rampSamples(600)))

	for p := 0.0; p <= 1.0; p += 0.05 {
		assert.Equal(t, first.Predict(p), second.Predict(p))
	}
}

func TestCurveRoundTrip(t *testing.T) {
	curve := NewCurve(100)
	require.NoError(t, curve.Fit(rampSamples(600)))

	data, err := json.Marshal(curve)
	require.NoError(t, err)

	restored := &Curve{}
	require.NoError(t, json.Unmarshal(data, restored))

	assert.True(t, restored.IsFitted())
	for p := 0.0; p <= 1.0; p += 0.05 {
		assert.Equal(t, curve.Predict(p), restored.Predict(p))
	}
}

func TestPoolAdjacentViolatorsOrdersNoisyBins(t *testing.T) {
	// A dip at the second bin must be pooled away.
	bins := []bin{
		{meanPredicted: 0.2, frequency: 0.30, count: 10},
		{meanPredicted: 0.4, frequency: 0.10, count: 10},
		{meanPredicted: 0.6, frequency: 0.50, count: 10},
		{meanPredicted: 0.8, frequency: 0.45, count: 30},
	}

	_, values := poolAdjacentViolators(bins)
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1])
	}
}

func TestOptimalBinsBounds(t *testing.T) {
	tests := []struct {
		name    string
		samples int
		want    int
	}{
		{"empty", 0, 0},
		{"tiny history stays at the floor", 8, 5},
		{"thin history capped to keep bins populated", 50, 5},
		{"mid history follows sturges", 600, 11},
		{"large history keeps growing slowly", 1 << 20, 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, optimalBins(tt.samples))
		})
	}
}
