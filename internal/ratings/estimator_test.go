package ratings

import (
	"errors"
	"math"
	"testing"

	"github.com/yourusername/goalodds/internal/models"
)

func flatRatings(teams ...string) models.RatingSet {
	rs := make(models.RatingSet, len(teams))
	for _, team := range teams {
		rs[team] = models.TeamRating{Team: team, Attack: 1.0, Defense: 1.0, Matches: 20}
	}
	return rs
}

// scoreMatches builds one match per scoreline between the two teams, spaced
// a day apart ending at the cutoff
func scoreMatches(home, away string, scores [][2]int) []models.Match {
	matches := make([]models.Match, 0, len(scores))
	for i, s := range scores {
		matches = append(matches, testMatch(home, away, s[0], s[1], len(scores)-i))
	}
	return matches
}

// TestHomeAdvantageFlatRatings tests the estimate against the hand-computed
// mean of log goal counts when every expectation is 1.0
func TestHomeAdvantageFlatRatings(t *testing.T) {
	cfg := testModelConfig()
	cfg.DecayRate = 0.0
	estimator := NewParameterEstimator(cfg)

	matches := scoreMatches("alpha", "omega", [][2]int{{1, 0}, {2, 1}})
	got, err := estimator.HomeAdvantage(matches, flatRatings("alpha", "omega"), testCutoff)
	if err != nil {
		t.Fatalf(expectedNoErrMsg, err)
	}

	want := (math.Log(1.0) + math.Log(2.0)) / 2.0
	if !almostEqual(got, want, 1e-12) {
		t.Errorf(expectedValueMsg, want, got)
	}
}

// TestHomeAdvantageAllZeroHomeGoals tests the half-goal floor on a batch
// where the home side never scores
func TestHomeAdvantageAllZeroHomeGoals(t *testing.T) {
	cfg := testModelConfig()
	cfg.DecayRate = 0.0
	estimator := NewParameterEstimator(cfg)

	matches := scoreMatches("alpha", "omega", [][2]int{{0, 1}, {0, 2}, {0, 0}})
	got, err := estimator.HomeAdvantage(matches, flatRatings("alpha", "omega"), testCutoff)
	if err != nil {
		t.Fatalf(expectedNoErrMsg, err)
	}

	want := math.Log(0.5)
	if !almostEqual(got, want, 1e-12) {
		t.Errorf(expectedValueMsg, want, got)
	}
}

// TestHomeAdvantageDecayPrefersRecent tests that the weighted mean leans
// toward the newer residuals
func TestHomeAdvantageDecayPrefersRecent(t *testing.T) {
	cfg := testModelConfig()
	cfg.DecayRate = 0.01
	estimator := NewParameterEstimator(cfg)

	matches := []models.Match{
		testMatch("alpha", "omega", 1, 0, 300),
		testMatch("alpha", "omega", 2, 0, 0),
	}
	got, err := estimator.HomeAdvantage(matches, flatRatings("alpha", "omega"), testCutoff)
	if err != nil {
		t.Fatalf(expectedNoErrMsg, err)
	}

	want := math.Log(2.0) / (1.0 + math.Exp(-3.0))
	if !almostEqual(got, want, 1e-9) {
		t.Errorf(expectedValueMsg, want, got)
	}
}

// TestHomeAdvantageUnknownTeam tests the missing-rating error path
func TestHomeAdvantageUnknownTeam(t *testing.T) {
	estimator := NewParameterEstimator(testModelConfig())
	matches := scoreMatches("alpha", "stranger", [][2]int{{1, 0}})

	if _, err := estimator.HomeAdvantage(matches, flatRatings("alpha", "omega"), testCutoff); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestHomeAdvantageEmptyMatches tests the insufficient-data error
func TestHomeAdvantageEmptyMatches(t *testing.T) {
	estimator := NewParameterEstimator(testModelConfig())

	if _, err := estimator.HomeAdvantage(nil, flatRatings("alpha"), testCutoff); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

// drawHeavyScores produces far more goalless and one-all draws than an
// independent Poisson model at unit means would
func drawHeavyScores() [][2]int {
	scores := make([][2]int, 0, 26)
	for i := 0; i < 10; i++ {
		scores = append(scores, [2]int{0, 0})
		scores = append(scores, [2]int{1, 1})
	}
	for i := 0; i < 3; i++ {
		scores = append(scores, [2]int{1, 0})
		scores = append(scores, [2]int{0, 1})
	}
	return scores
}

// TestRhoNegativeForDrawHeavyData tests the direction of the fitted
// dependency when low-score draws are overrepresented
func TestRhoNegativeForDrawHeavyData(t *testing.T) {
	estimator := NewParameterEstimator(testModelConfig())
	matches := scoreMatches("alpha", "omega", drawHeavyScores())

	estimate, err := estimator.Rho(matches, flatRatings("alpha", "omega"), 0.0, testCutoff)
	if err != nil {
		t.Fatalf(expectedNoErrMsg, err)
	}

	if estimate.Rho >= -0.01 {
		t.Errorf("expected clearly negative rho, got %v", estimate.Rho)
	}
	if estimate.Rho < defaultRhoMin || estimate.Rho > defaultRhoMax {
		t.Errorf("rho %v outside configured bounds", estimate.Rho)
	}
	if estimate.LogLikelihood >= 0 {
		t.Errorf("expected negative log-likelihood, got %v", estimate.LogLikelihood)
	}
	if estimate.ClampCount != 0 {
		t.Errorf("expected no floor events for benign parameters, got %d", estimate.ClampCount)
	}
}

// TestRhoPositiveForDrawLightData tests the opposite direction with draws
// underrepresented
func TestRhoPositiveForDrawLightData(t *testing.T) {
	scores := make([][2]int, 0, 26)
	for i := 0; i < 3; i++ {
		scores = append(scores, [2]int{0, 0})
		scores = append(scores, [2]int{1, 1})
	}
	for i := 0; i < 10; i++ {
		scores = append(scores, [2]int{1, 0})
		scores = append(scores, [2]int{0, 1})
	}

	estimator := NewParameterEstimator(testModelConfig())
	matches := scoreMatches("alpha", "omega", scores)

	estimate, err := estimator.Rho(matches, flatRatings("alpha", "omega"), 0.0, testCutoff)
	if err != nil {
		t.Fatalf(expectedNoErrMsg, err)
	}

	if estimate.Rho <= 0.01 {
		t.Errorf("expected clearly positive rho, got %v", estimate.Rho)
	}
	if estimate.Rho > defaultRhoMax {
		t.Errorf("rho %v above the configured upper bound", estimate.Rho)
	}
}

// TestRhoDeterministic tests bit-for-bit reproducibility of the search
func TestRhoDeterministic(t *testing.T) {
	estimator := NewParameterEstimator(testModelConfig())
	matches := scoreMatches("alpha", "omega", drawHeavyScores())
	ratings := flatRatings("alpha", "omega")

	first, err := estimator.Rho(matches, ratings, 0.0, testCutoff)
	if err != nil {
		t.Fatalf(expectedNoErrMsg, err)
	}
	second, err := estimator.Rho(matches, ratings, 0.0, testCutoff)
	if err != nil {
		t.Fatalf(expectedNoErrMsg, err)
	}

	if first.Rho != second.Rho || first.LogLikelihood != second.LogLikelihood {
		t.Errorf("identical inputs produced different estimates: %+v vs %+v", first, second)
	}
}

// TestRhoEmptyMatches tests the insufficient-data error
func TestRhoEmptyMatches(t *testing.T) {
	estimator := NewParameterEstimator(testModelConfig())

	if _, err := estimator.Rho(nil, flatRatings("alpha"), 0.0, testCutoff); !errors.Is(err, models.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

// TestCountTauClamps tests the floor event counter on a collapsing term
func TestCountTauClamps(t *testing.T) {
	terms := []likelihoodTerm{
		{homeGoals: 0, awayGoals: 0, lambdaHome: 5.0, lambdaAway: 5.0, weight: 1.0},
		{homeGoals: 2, awayGoals: 1, lambdaHome: 5.0, lambdaAway: 5.0, weight: 1.0},
	}

	// 1 - 25*0.1 is negative, so exactly the goalless term hits the floor.
	if got := countTauClamps(terms, 0.1); got != 1 {
		t.Errorf(expectedValueMsg, 1, got)
	}
	if got := countTauClamps(terms, -0.1); got != 0 {
		t.Errorf(expectedValueMsg, 0, got)
	}

	if ll := weightedLogLikelihood(terms, 0.1); math.IsInf(ll, 0) || math.IsNaN(ll) {
		t.Errorf("expected finite likelihood under the floor, got %v", ll)
	}
}

// TestGoldenSectionMax tests the optimizer on a concave parabola and on a
// boundary maximum
func TestGoldenSectionMax(t *testing.T) {
	parabola := func(x float64) float64 { return -(x - 0.25) * (x - 0.25) }
	if got := goldenSectionMax(0.0, 1.0, goldenSectionIterations, parabola); !almostEqual(got, 0.25, 1e-9) {
		t.Errorf(expectedValueMsg, 0.25, got)
	}

	line := func(x float64) float64 { return x }
	if got := goldenSectionMax(0.0, 1.0, goldenSectionIterations, line); !almostEqual(got, 1.0, 1e-9) {
		t.Errorf(expectedValueMsg, 1.0, got)
	}
}

func BenchmarkRho(b *testing.B) {
	estimator := NewParameterEstimator(testModelConfig())
	matches := scoreMatches("alpha", "omega", drawHeavyScores())
	ratings := flatRatings("alpha", "omega")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := estimator.Rho(matches, ratings, 0.0, testCutoff); err != nil {
			b.Fatal(err)
		}
	}
}
