package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalodds/internal/adjust"
	"github.com/yourusername/goalodds/internal/blend"
	"github.com/yourusername/goalodds/internal/calibration"
	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/logger"
	"github.com/yourusername/goalodds/internal/metrics"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/poisson"
	"github.com/yourusername/goalodds/internal/registry"
	"github.com/yourusername/goalodds/internal/repository"
)

// Exploratory variants callers may request explicitly. Their output is
// heuristic by construction: never calibrated, never decision support.
const (
	VariantRawModel = "raw_model"
	VariantDrawLean = "draw_lean"
)

// Prediction represents one served probability set with its provenance
type Prediction struct {
	FixtureID     uuid.UUID             `json:"fixture_id"`
	HomeTeam      string                `json:"home_team"`
	AwayTeam      string                `json:"away_team"`
	ModelType     models.ModelType      `json:"model_type"`
	ModelVersion  string                `json:"model_version"`
	Probabilities models.ProbabilitySet `json:"probabilities"`
	CacheHit      bool                  `json:"cache_hit"`
	GeneratedAt   time.Time             `json:"generated_at"`
}

// loadedModel pairs an artifact with its decoded calibration curves so the
// curves are unmarshalled once per promotion, not once per fixture
type loadedModel struct {
	artifact   *models.ModelArtifact
	calibrator *calibration.Calibrator
}

// PredictionService serves probability sets from the active artifact. The
// chain per fixture is score grid, draw adjustment, market blend when closing
// odds are present, then calibration. The path is read-only and safe to run
// concurrently across fixtures.
type PredictionService struct {
	signalRepo repository.SignalRepository
	registry   *registry.Registry
	adjuster   *adjust.Adjuster
	cache      *PredictionCache
	modelType  models.ModelType
	log        *logger.PredictionLogger
	audit      *logger.AuditLogger

	mu     sync.Mutex
	loaded *loadedModel
}

// NewPredictionService creates a new prediction service
func NewPredictionService(
	signalRepo repository.SignalRepository,
	reg *registry.Registry,
	cfg *config.Config,
	baseLogger *logrus.Logger,
) *PredictionService {
	return &PredictionService{
		signalRepo: signalRepo,
		registry:   reg,
		adjuster:   adjust.NewAdjuster(&cfg.Draw),
		cache: NewPredictionCache(
			time.Duration(cfg.Prediction.CacheTTLSeconds)*time.Second,
			cfg.Prediction.CacheMaxSize,
		),
		modelType: models.ModelType(cfg.Model.Type),
		log:       logger.NewPredictionLogger(baseLogger),
		audit:     logger.NewAuditLogger(baseLogger),
	}
}

// Predict runs the full chain for one upcoming fixture against the active
// artifact. Results are cached per fixture and artifact version.
func (s *PredictionService) Predict(ctx context.Context, fixture *models.Match) (*Prediction, error) {
	start := time.Now()

	model, err := s.activeModel(ctx)
	if err != nil {
		metrics.RecordPredictionError()
		s.log.LogPredictionError(fixture.ID.String(), err.Error())
		return nil, err
	}

	key := CacheKey{FixtureID: fixture.ID, ModelVersion: model.artifact.Version}
	if cached := s.cache.Get(key); cached != nil {
		hit := *cached
		hit.CacheHit = true
		s.log.LogPrediction(fixture.ID.String(), model.artifact.Version,
			hit.Probabilities.Home, hit.Probabilities.Draw, hit.Probabilities.Away,
			hit.Probabilities.Calibrated, true, msSince(start))
		return &hit, nil
	}

	ps, err := s.chain(ctx, fixture, model)
	if err != nil {
		metrics.RecordPredictionError()
		s.log.LogPredictionError(fixture.ID.String(), err.Error())
		return nil, err
	}

	prediction := &Prediction{
		FixtureID:     fixture.ID,
		HomeTeam:      fixture.HomeTeam,
		AwayTeam:      fixture.AwayTeam,
		ModelType:     model.artifact.ModelType,
		ModelVersion:  model.artifact.Version,
		Probabilities: ps,
		GeneratedAt:   time.Now().UTC(),
	}
	s.cache.Set(key, prediction)

	metrics.RecordPrediction(provenance(ps), time.Since(start).Seconds())
	s.log.LogPrediction(fixture.ID.String(), model.artifact.Version,
		ps.Home, ps.Draw, ps.Away, ps.Calibrated, false, msSince(start))
	return prediction, nil
}

// PredictBatch runs the chain concurrently across fixtures. Fixtures that
// fail individually are logged and skipped; the method only errors when no
// model is active at all.
func (s *PredictionService) PredictBatch(ctx context.Context, fixtures []*models.Match) ([]*Prediction, error) {
	if _, err := s.activeModel(ctx); err != nil {
		return nil, err
	}

	slots := make([]*Prediction, len(fixtures))
	var wg sync.WaitGroup
	for i := range fixtures {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			prediction, err := s.Predict(ctx, fixtures[idx])
			if err != nil {
				return
			}
			slots[idx] = prediction
		}(i)
	}
	wg.Wait()

	predictions := make([]*Prediction, 0, len(fixtures))
	for _, p := range slots {
		if p != nil {
			predictions = append(predictions, p)
		}
	}
	return predictions, nil
}

// PredictExploratory serves an explicitly requested heuristic variant. The
// output is informational only: the probability set is distorted on purpose,
// never calibrated and never cleared for decision support. Every issued set
// lands in the audit trail with its requester.
func (s *PredictionService) PredictExploratory(ctx context.Context, fixture *models.Match, variant, requestedBy string) (*Prediction, error) {
	start := time.Now()

	model, err := s.activeModel(ctx)
	if err != nil {
		metrics.RecordPredictionError()
		s.log.LogPredictionError(fixture.ID.String(), err.Error())
		return nil, err
	}

	base, err := poisson.MatchProbabilities(model.artifact.Ratings, model.artifact.Parameters, fixture.HomeTeam, fixture.AwayTeam)
	if err != nil {
		metrics.RecordPredictionError()
		s.log.LogPredictionError(fixture.ID.String(), err.Error())
		return nil, err
	}

	var ps models.ProbabilitySet
	switch variant {
	case VariantRawModel:
		ps, err = models.NewHeuristicProbabilitySet(base.Home, base.Draw, base.Away)
		if err == nil {
			ps.LambdaHome, ps.LambdaAway = base.LambdaHome, base.LambdaAway
			ps.Entropy = base.Entropy
		}
	case VariantDrawLean:
		ps, err = s.adjuster.ApplyExploratory(base, s.fixtureSignals(ctx, fixture.ID))
	default:
		err = fmt.Errorf("unknown exploratory variant %q", variant)
	}
	if err != nil {
		metrics.RecordPredictionError()
		s.log.LogPredictionError(fixture.ID.String(), err.Error())
		return nil, err
	}

	metrics.RecordPrediction(provenance(ps), time.Since(start).Seconds())
	s.audit.LogHeuristicSetIssued(fixture.ID.String(), variant, requestedBy)
	return &Prediction{
		FixtureID:     fixture.ID,
		HomeTeam:      fixture.HomeTeam,
		AwayTeam:      fixture.AwayTeam,
		ModelType:     model.artifact.ModelType,
		ModelVersion:  model.artifact.Version,
		Probabilities: ps,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// CacheStats exposes the cache hit counters for monitoring loops
func (s *PredictionService) CacheStats() (hits, misses uint64, ratio float64) {
	return s.cache.Stats()
}

// chain runs grid, draw adjustment, blend and calibration for one fixture
func (s *PredictionService) chain(ctx context.Context, fixture *models.Match, model *loadedModel) (models.ProbabilitySet, error) {
	artifact := model.artifact

	ps, err := poisson.MatchProbabilities(artifact.Ratings, artifact.Parameters, fixture.HomeTeam, fixture.AwayTeam)
	if err != nil {
		return models.ProbabilitySet{}, err
	}

	ps, err = s.adjuster.Apply(ps, s.fixtureSignals(ctx, fixture.ID))
	if err != nil {
		return models.ProbabilitySet{}, err
	}

	if fixture.HasClosingOdds() {
		ps, err = blend.Mix(ps, fixture.Closing, artifact.Parameters.BlendAlpha)
		if err != nil {
			return models.ProbabilitySet{}, err
		}
	} else {
		metrics.RecordBlendFallback()
		s.log.LogBlendSkipped(fixture.ID.String(), "no playable closing odds")
	}

	ps, err = model.calibrator.Apply(ps)
	if err != nil {
		return models.ProbabilitySet{}, err
	}

	if unfitted := model.calibrator.UnfittedOutcomes(); len(unfitted) > 0 {
		for _, outcome := range unfitted {
			metrics.RecordCalibrationPassThrough(outcome)
		}
		s.log.LogCalibrationPassThrough(fixture.ID.String(), unfitted)
	}

	return ps, nil
}

// fixtureSignals loads the draw signal bag for a fixture. A missing row or a
// lookup failure degrades to the neutral bag; signals shape the draw, they
// never block a prediction.
func (s *PredictionService) fixtureSignals(ctx context.Context, fixtureID uuid.UUID) *models.DrawSignals {
	signals, err := s.signalRepo.GetByFixtureID(ctx, fixtureID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.log.WithError(err).WithField("fixture_id", fixtureID).Warn("Draw signal lookup failed, using neutral signals")
		}
		return nil
	}
	return signals
}

// activeModel returns the active artifact with its decoded calibrator,
// reloading only when a new artifact has been promoted
func (s *PredictionService) activeModel(ctx context.Context) (*loadedModel, error) {
	artifact, err := s.registry.Active(ctx, s.modelType)
	if err != nil {
		return nil, fmt.Errorf("no active %s artifact: %w", s.modelType, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded != nil && s.loaded.artifact.ID == artifact.ID {
		return s.loaded, nil
	}

	calibrator, err := calibration.Unmarshal(artifact.Calibration)
	if err != nil {
		return nil, fmt.Errorf("failed to decode calibration curves for artifact %s: %w", artifact.ID, err)
	}

	s.loaded = &loadedModel{artifact: artifact, calibrator: calibrator}
	metrics.UpdateActiveModel(string(artifact.ModelType), artifact.Version)
	metrics.UpdateBlendAlpha(artifact.Parameters.BlendAlpha)
	return s.loaded, nil
}

// provenance labels a probability set for the prediction counter
func provenance(ps models.ProbabilitySet) string {
	switch {
	case ps.Heuristic:
		return "heuristic"
	case ps.Calibrated:
		return "calibrated"
	default:
		return "model"
	}
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
