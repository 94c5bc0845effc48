// Package evaluation computes forecast quality metrics and the time-ordered
// split used when learning the blend weight and the calibration curves.
package evaluation

import (
	"math"
	"sort"

	"github.com/yourusername/goalodds/internal/models"
)

// logLossFloor keeps a zero probability on the realized outcome out of the
// logarithm.
const logLossFloor = 1e-15

var outcomes = []models.Outcome{models.OutcomeHome, models.OutcomeDraw, models.OutcomeAway}

// Sample pairs one predicted distribution with the realized outcome
type Sample struct {
	Probabilities models.ProbabilitySet
	Outcome       models.Outcome
}

// CalculateMetrics computes the full validation metric set over the samples
func CalculateMetrics(samples []Sample) models.ValidationMetrics {
	return models.ValidationMetrics{
		Brier:           BrierScore(samples),
		LogLoss:         LogLoss(samples),
		Accuracy:        Accuracy(samples),
		DrawAccuracy:    DrawAccuracy(samples),
		ValidationCount: len(samples),
	}
}

// BrierScore returns the mean squared distance between the predicted
// distribution and the realized outcome vector. A perfect forecast scores 0,
// a uniform one 2/3.
func BrierScore(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}

	total := 0.0
	for i := range samples {
		total += brierForSample(&samples[i])
	}
	return total / float64(len(samples))
}

func brierForSample(s *Sample) float64 {
	score := 0.0
	for _, o := range outcomes {
		indicator := 0.0
		if s.Outcome == o {
			indicator = 1.0
		}
		diff := s.Probabilities.Prob(o) - indicator
		score += diff * diff
	}
	return score
}

// LogLoss returns the mean negative log probability assigned to the realized
// outcomes, floored so an impossible-in-hindsight forecast stays finite
func LogLoss(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}

	total := 0.0
	for i := range samples {
		p := samples[i].Probabilities.Prob(samples[i].Outcome)
		if p < logLossFloor {
			p = logLossFloor
		}
		total -= math.Log(p)
	}
	return total / float64(len(samples))
}

// Accuracy returns the share of samples whose most likely outcome was the
// realized one
func Accuracy(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}

	correct := 0
	for i := range samples {
		if samples[i].Probabilities.MostLikely() == samples[i].Outcome {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}

// DrawAccuracy returns the recall on drawn matches: of all samples that ended
// level, the share the forecast called a draw. Draws are the rarest outcome
// and the hardest to call, so they get their own metric.
func DrawAccuracy(samples []Sample) float64 {
	draws := 0
	called := 0
	for i := range samples {
		if samples[i].Outcome != models.OutcomeDraw {
			continue
		}
		draws++
		if samples[i].Probabilities.MostLikely() == models.OutcomeDraw {
			called++
		}
	}

	if draws == 0 {
		return 0
	}
	return float64(called) / float64(draws)
}

// SplitByTime partitions matches chronologically: the oldest part trains the
// model and the newest fraction validates it. The input slice is not mutated.
func SplitByTime(matches []models.Match, validationFraction float64) (train, validation []models.Match) {
	if len(matches) == 0 {
		return nil, nil
	}

	ordered := make([]models.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].MatchDate.Before(ordered[j].MatchDate)
	})

	count := int(float64(len(ordered)) * validationFraction)
	if count < 0 {
		count = 0
	}
	if count > len(ordered) {
		count = len(ordered)
	}

	cut := len(ordered) - count
	return ordered[:cut], ordered[cut:]
}
