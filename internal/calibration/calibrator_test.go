package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/models"
)

func testCalibrationConfig() *config.CalibrationConfig {
	return &config.CalibrationConfig{
		MinHomeSamples: 200,
		MinDrawSamples: 400,
		MinAwaySamples: 200,
	}
}

// syntheticObservations builds a deterministic validation history whose home
// forecasts run hot: homes realize at 80% of the predicted rate while the
// rest of the mass lands on draws and away wins.
func syntheticObservations(t *testing.T, n int) []Observation {
	t.Helper()

	observations := make([]Observation, 0, n)
	for i := 0; i < n; i++ {
		step := float64(i%25) / 24.0
		home := 0.30 + 0.40*step
		draw := 0.25
		away := 1.0 - home - draw

		ps, err := models.NewModelProbabilitySet(home, draw, away)
		require.NoError(t, err)

		trueHome := 0.8 * home
		trueDraw := 0.25
		percentile := float64((i * 37) % 100)

		var outcome models.Outcome
		switch {
		case percentile < 100*trueHome:
			outcome = models.OutcomeHome
		case percentile < 100*(trueHome+trueDraw):
			outcome = models.OutcomeDraw
		default:
			outcome = models.OutcomeAway
		}

		observations = append(observations, Observation{Probabilities: ps, Outcome: outcome})
	}
	return observations
}

// TestFitRespectsPerOutcomeMinimums feeds enough samples for the home and
// away curves but not for the draw curve, which needs more data because
// draws are rarer.
func TestFitRespectsPerOutcomeMinimums(t *testing.T) {
	calibrator := NewCalibrator(testCalibrationConfig())

	require.NoError(t, calibrator.Fit(syntheticObservations(t, 300)))

	assert.Equal(t, []string{"home", "away"}, calibrator.FittedOutcomes())
	assert.Equal(t, []string{"draw"}, calibrator.UnfittedOutcomes())
	assert.True(t, calibrator.AnyFitted())
}

func TestFitAllOutcomesAboveMinimums(t *testing.T) {
	calibrator := NewCalibrator(testCalibrationConfig())

	require.NoError(t, calibrator.Fit(syntheticObservations(t, 600)))

	assert.Equal(t, []string{"home", "draw", "away"}, calibrator.FittedOutcomes())
	assert.Empty(t, calibrator.UnfittedOutcomes())
}

// TestApplyUnfittedLeavesSetUnchanged tests the full pass-through: with no
// fitted curve the mapped values and the flags stay exactly as they came in.
func TestApplyUnfittedLeavesSetUnchanged(t *testing.T) {
	calibrator := NewCalibrator(testCalibrationConfig())

	ps, err := models.NewModelProbabilitySet(0.42, 0.31, 0.27)
	require.NoError(t, err)

	out, err := calibrator.Apply(ps)
	require.NoError(t, err)

	assert.InDelta(t, 0.42, out.Home, 1e-12)
	assert.InDelta(t, 0.31, out.Draw, 1e-12)
	assert.InDelta(t, 0.27, out.Away, 1e-12)
	assert.False(t, out.Calibrated)
	assert.False(t, out.AllowedForDecisionSupport)
}

// TestApplyPartialFitPassesDrawThrough tests that with the draw curve below
// its minimum the draw value enters the renormalization unmapped while home
// shrinks toward its observed frequency.
func TestApplyPartialFitPassesDrawThrough(t *testing.T) {
	calibrator := NewCalibrator(testCalibrationConfig())
	require.NoError(t, calibrator.Fit(syntheticObservations(t, 300)))

	// The draw curve must behave as the identity before renormalization.
	assert.Equal(t, 0.31, calibrator.draw.Predict(0.31))

	ps, err := models.NewModelProbabilitySet(0.60, 0.25, 0.15)
	require.NoError(t, err)

	out, err := calibrator.Apply(ps)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, out.Sum(), 1e-9)
	assert.True(t, out.Calibrated)
	// Overconfident home forecasts get pulled down by the fitted curve.
	assert.Less(t, out.Home, 0.60)
}

func TestApplyRenormalizesOntoSimplex(t *testing.T) {
	calibrator := NewCalibrator(testCalibrationConfig())
	require.NoError(t, calibrator.Fit(syntheticObservations(t, 600)))

	for _, trio := range [][3]float64{
		{0.70, 0.20, 0.10},
		{0.33, 0.34, 0.33},
		{0.10, 0.15, 0.75},
	} {
		ps, err := models.NewModelProbabilitySet(trio[0], trio[1], trio[2])
		require.NoError(t, err)

		out, err := calibrator.Apply(ps)
		require.NoError(t, err)

		assert.InDelta(t, 1.0, out.Sum(), 1e-9)
		assert.GreaterOrEqual(t, out.Home, 0.0)
		assert.GreaterOrEqual(t, out.Draw, 0.0)
		assert.GreaterOrEqual(t, out.Away, 0.0)
	}
}

// TestApplyHeuristicNeverCalibrated tests the hard provenance rule: a
// heuristic set can never leave calibration claiming to be calibrated.
func TestApplyHeuristicNeverCalibrated(t *testing.T) {
	calibrator := NewCalibrator(testCalibrationConfig())
	require.NoError(t, calibrator.Fit(syntheticObservations(t, 600)))

	heuristic, err := models.NewHeuristicProbabilitySet(0.5, 0.3, 0.2)
	require.NoError(t, err)

	out, err := calibrator.Apply(heuristic)
	require.NoError(t, err)

	assert.True(t, out.Heuristic)
	assert.False(t, out.Calibrated)
	assert.False(t, out.AllowedForDecisionSupport)
}

func TestApplyCalibratedClearsDecisionSupport(t *testing.T) {
	calibrator := NewCalibrator(testCalibrationConfig())
	require.NoError(t, calibrator.Fit(syntheticObservations(t, 600)))

	ps, err := models.NewModelProbabilitySet(0.5, 0.3, 0.2)
	require.NoError(t, err)

	out, err := calibrator.Apply(ps)
	require.NoError(t, err)

	assert.True(t, out.Calibrated)
	assert.True(t, out.AllowedForDecisionSupport)
	assert.False(t, out.Heuristic)
}

// TestMarshalRoundTrip tests that a calibrator stored on an artifact comes
// back applying identically, including which outcomes count as fitted.
func TestMarshalRoundTrip(t *testing.T) {
	calibrator := NewCalibrator(testCalibrationConfig())
	require.NoError(t, calibrator.Fit(syntheticObservations(t, 300)))

	data, err := calibrator.Marshal()
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, calibrator.FittedOutcomes(), restored.FittedOutcomes())

	ps, err := models.NewModelProbabilitySet(0.55, 0.25, 0.20)
	require.NoError(t, err)

	want, err := calibrator.Apply(ps)
	require.NoError(t, err)
	got, err := restored.Apply(ps)
	require.NoError(t, err)

	assert.Equal(t, want.Home, got.Home)
	assert.Equal(t, want.Draw, got.Draw)
	assert.Equal(t, want.Away, got.Away)
}

func TestUnmarshalEmptyPayloadIsPassThrough(t *testing.T) {
	restored, err := Unmarshal(nil)
	require.NoError(t, err)

	assert.False(t, restored.AnyFitted())

	ps, err := models.NewModelProbabilitySet(0.4, 0.3, 0.3)
	require.NoError(t, err)

	out, err := restored.Apply(ps)
	require.NoError(t, err)
	assert.Equal(t, ps.Home, out.Home)
	assert.False(t, out.Calibrated)
}
