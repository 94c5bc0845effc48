// Package service orchestrates the training lifecycle and the prediction path.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalodds/internal/blend"
	"github.com/yourusername/goalodds/internal/calibration"
	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/evaluation"
	"github.com/yourusername/goalodds/internal/logger"
	"github.com/yourusername/goalodds/internal/metrics"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/poisson"
	"github.com/yourusername/goalodds/internal/ratings"
	"github.com/yourusername/goalodds/internal/registry"
	"github.com/yourusername/goalodds/internal/repository"
)

// RunStage identifies how far a background training run has progressed
type RunStage string

const (
	StageLoading     RunStage = "loading"
	StageFitting     RunStage = "fitting"
	StageEstimating  RunStage = "estimating"
	StageBlending    RunStage = "blending"
	StageCalibrating RunStage = "calibrating"
	StageValidating  RunStage = "validating"
	StagePromoting   RunStage = "promoting"
	StageCompleted   RunStage = "completed"
	StageFailed      RunStage = "failed"
)

// Terminal reports whether the stage is a final one
func (s RunStage) Terminal() bool {
	return s == StageCompleted || s == StageFailed
}

// RunProgress is a point-in-time snapshot of a background run for pollers
type RunProgress struct {
	RunID      uuid.UUID        `json:"run_id"`
	ModelType  models.ModelType `json:"model_type"`
	Stage      RunStage         `json:"stage"`
	Iterations int              `json:"iterations"`
	MatchCount int              `json:"match_count"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// TrainingService runs the full training lifecycle for a model type: dataset
// load and hash, strength and parameter fitting, blend weight search,
// calibration, validation and atomic promotion through the registry. Runs
// execute in a background goroutine; callers poll progress and may cancel
// any time before promotion.
type TrainingService struct {
	matchRepo repository.MatchRepository
	registry  *registry.Registry
	cfg       *config.Config
	log       *logger.TrainingLogger

	mu       sync.Mutex
	progress map[uuid.UUID]*RunProgress
	cancels  map[uuid.UUID]context.CancelFunc
}

// NewTrainingService creates a new training service
func NewTrainingService(
	matchRepo repository.MatchRepository,
	reg *registry.Registry,
	cfg *config.Config,
	baseLogger *logrus.Logger,
) *TrainingService {
	return &TrainingService{
		matchRepo: matchRepo,
		registry:  reg,
		cfg:       cfg,
		log:       logger.NewTrainingLogger(baseLogger),
		progress:  make(map[uuid.UUID]*RunProgress),
		cancels:   make(map[uuid.UUID]context.CancelFunc),
	}
}

// StartRun reserves the model type, records the audit row and launches the
// pipeline in the background. The returned run is already persisted; use
// Progress to follow it and Cancel to abort before promotion. The passed
// context covers only the synchronous reservation; the background run has
// its own lifetime.
func (s *TrainingService) StartRun(ctx context.Context, modelType models.ModelType) (*models.TrainingRun, error) {
	run, err := s.registry.Begin(ctx, modelType)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.cancels[run.ID] = cancel
	s.progress[run.ID] = &RunProgress{
		RunID:     run.ID,
		ModelType: modelType,
		Stage:     StageLoading,
		StartedAt: run.StartedAt,
		UpdatedAt: run.StartedAt,
	}
	s.mu.Unlock()

	go s.execute(runCtx, run)
	return run, nil
}

// Progress returns the latest snapshot for a run started by this process
func (s *TrainingService) Progress(runID uuid.UUID) (RunProgress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[runID]
	if !ok {
		return RunProgress{}, false
	}
	return *p, true
}

// Cancel aborts a running background run. The run is marked failed and the
// active artifact, if any, stays untouched. Returns false when the run is
// unknown or already finished.
func (s *TrainingService) Cancel(runID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.cancels[runID]
	if !ok {
		return false
	}
	cancel()
	return true
}

// Wait polls until the run reaches a terminal stage and returns the persisted
// run record. The context bounds how long the caller is willing to wait.
func (s *TrainingService) Wait(ctx context.Context, runID uuid.UUID) (*models.TrainingRun, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		p, ok := s.Progress(runID)
		if !ok {
			return nil, fmt.Errorf("unknown training run %s: %w", runID, models.ErrNotFound)
		}
		if p.Stage.Terminal() {
			return s.registry.Run(ctx, runID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// execute drives one background run to a terminal state
func (s *TrainingService) execute(ctx context.Context, run *models.TrainingRun) {
	defer func() {
		s.mu.Lock()
		delete(s.cancels, run.ID)
		s.mu.Unlock()
	}()

	start := time.Now()
	artifact, err := s.pipeline(ctx, run)
	if err != nil {
		s.fail(run, err)
		return
	}

	s.setStage(run.ID, StagePromoting, nil)
	if err := s.registry.Complete(context.Background(), run, artifact); err != nil {
		s.fail(run, err)
		return
	}

	duration := time.Since(start)
	metrics.RecordTrainingDuration(duration.Seconds())
	s.setStage(run.ID, StageCompleted, nil)
	s.log.LogRunCompleted(run.ID.String(), artifact.ID.String(), artifact.Version, duration.Seconds())
}

// fail records the failure before the terminal stage becomes visible, so Wait
// callers always read the persisted outcome
func (s *TrainingService) fail(run *models.TrainingRun, cause error) {
	s.log.LogRunFailed(run.ID.String(), string(run.ModelType), cause.Error())
	// The run context may already be cancelled; the failure record must
	// still land.
	if failErr := s.registry.Fail(context.Background(), run, cause); failErr != nil {
		s.log.WithError(failErr).WithField("run_id", run.ID).Error("Failed to record run failure")
	}
	s.setStage(run.ID, StageFailed, cause)
}

// pipeline runs every training stage and returns the candidate artifact ready
// for promotion
func (s *TrainingService) pipeline(ctx context.Context, run *models.TrainingRun) (*models.ModelArtifact, error) {
	cutoff := run.StartedAt.UTC()
	windowStart := cutoff.AddDate(0, 0, -s.cfg.Training.WindowDays)

	// Stage 1: load the window once, in repository order (date then id), and
	// pin the dataset identity before anything is computed from it.
	rows, err := s.matchRepo.GetByDateRange(ctx, windowStart, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load training matches: %w", err)
	}
	if len(rows) < s.cfg.Model.MinTrainingMatches {
		return nil, fmt.Errorf("%d matches in window, need %d: %w",
			len(rows), s.cfg.Model.MinTrainingMatches, models.ErrInsufficientData)
	}

	// The run works on an immutable value copy of the dataset.
	matches := make([]models.Match, len(rows))
	for i, row := range rows {
		matches[i] = *row
	}

	run.DataHash = DatasetHash(matches)
	run.MatchCount = len(matches)
	run.DateFrom = matches[0].MatchDate
	run.DateTo = matches[len(matches)-1].MatchDate
	if err := s.registry.UpdateRun(ctx, run); err != nil {
		return nil, err
	}
	s.setMatchCount(run.ID, len(matches))
	s.log.LogRunStarted(run.ID.String(), string(run.ModelType), run.DataHash, run.MatchCount)

	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	// Stage 2: strengths over the full weighted window.
	s.setStage(run.ID, StageFitting, nil)
	fitter := ratings.NewStrengthFitter(&s.cfg.Model)
	fit, err := fitter.Fit(matches, cutoff)
	if err != nil {
		return nil, fmt.Errorf("strength fit failed: %w", err)
	}
	defaulted := fit.Ratings.DefaultedTeams()
	metrics.UpdateTrainingFit(fit.Iterations, fit.Converged)
	s.setIterations(run.ID, fit.Iterations)
	s.log.LogStrengthFit(run.ID.String(), len(fit.Ratings), fit.Iterations, fit.MaxDelta, fit.Converged, len(defaulted))

	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	// Stage 3: global parameters with the ratings held fixed.
	s.setStage(run.ID, StageEstimating, nil)
	estimator := ratings.NewParameterEstimator(&s.cfg.Model)
	homeAdvantage, err := estimator.HomeAdvantage(matches, fit.Ratings, cutoff)
	if err != nil {
		return nil, fmt.Errorf("home-advantage estimate failed: %w", err)
	}

	rhoEstimate, err := estimator.Rho(matches, fit.Ratings, homeAdvantage, cutoff)
	if err != nil {
		return nil, fmt.Errorf("dependency estimate failed: %w", err)
	}
	if rhoEstimate.ClampCount > 0 {
		metrics.RecordLikelihoodClamps(rhoEstimate.ClampCount)
		s.log.LogLikelihoodClamps(run.ID.String(), rhoEstimate.ClampCount, rhoEstimate.Rho)
	}

	params := models.ModelParameters{
		HomeAdvantage: homeAdvantage,
		Rho:           rhoEstimate.Rho,
		DecayRate:     s.cfg.Model.DecayRate,
		BlendAlpha:    s.cfg.Blend.DefaultAlpha,
		MaxGoals:      s.cfg.Model.MaxGoals,
	}

	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	// Stage 4: blend weight from the newest fraction of the window.
	s.setStage(run.ID, StageBlending, nil)
	_, validation := evaluation.SplitByTime(matches, s.cfg.Training.ValidationFraction)
	candidates, err := buildCandidates(validation, fit.Ratings, params)
	if err != nil {
		return nil, err
	}

	blender := blend.NewBlender(&s.cfg.Blend)
	alpha, learned := blender.LearnAlpha(candidates)
	params.BlendAlpha = alpha
	s.log.LogParameterEstimate(run.ID.String(), homeAdvantage, rhoEstimate.Rho, alpha)
	if !learned {
		s.log.WithFields(logrus.Fields{
			"run_id":      run.ID,
			"blend_alpha": alpha,
		}).Warn("No playable odds on the validation split, keeping the default blend weight")
	}

	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	// Stage 5: calibration curves from the blended validation forecasts.
	s.setStage(run.ID, StageCalibrating, nil)
	observations, err := blendCandidates(candidates, alpha)
	if err != nil {
		return nil, err
	}

	calibrator := calibration.NewCalibrator(&s.cfg.Calibration)
	if err := calibrator.Fit(observations); err != nil {
		return nil, err
	}
	curves, err := calibrator.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode calibration curves: %w", err)
	}

	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	// Stage 6: held-out metrics over the exact distribution the prediction
	// path would serve.
	s.setStage(run.ID, StageValidating, nil)
	samples := make([]evaluation.Sample, 0, len(observations))
	for i := range observations {
		calibrated, err := calibrator.Apply(observations[i].Probabilities)
		if err != nil {
			return nil, fmt.Errorf("calibration failed on validation sample: %w", err)
		}
		samples = append(samples, evaluation.Sample{Probabilities: calibrated, Outcome: observations[i].Outcome})
	}

	validationMetrics := evaluation.CalculateMetrics(samples)
	validationMetrics.CalibratedOutcomes = calibrator.FittedOutcomes()
	s.log.LogValidation(run.ID.String(), validationMetrics.Brier, validationMetrics.LogLoss,
		validationMetrics.Accuracy, validationMetrics.DrawAccuracy, validationMetrics.ValidationCount)

	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	return &models.ModelArtifact{
		ID:          uuid.New(),
		ModelType:   run.ModelType,
		Version:     cutoff.Format("20060102-150405"),
		Ratings:     fit.Ratings,
		Parameters:  params,
		Calibration: curves,
		Training: models.TrainingMeta{
			DataHash:       run.DataHash,
			MatchCount:     run.MatchCount,
			DateFrom:       run.DateFrom,
			DateTo:         run.DateTo,
			Iterations:     fit.Iterations,
			MaxDelta:       fit.MaxDelta,
			Converged:      fit.Converged,
			DefaultedTeams: defaulted,
		},
		Metrics:   validationMetrics,
		Status:    models.StatusTraining,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// buildCandidates scores every validation fixture with the fitted model and
// pairs the forecast with its market prices and realized outcome
func buildCandidates(validation []models.Match, rs models.RatingSet, params models.ModelParameters) ([]blend.Candidate, error) {
	candidates := make([]blend.Candidate, 0, len(validation))
	for i := range validation {
		m := &validation[i]
		ps, err := poisson.MatchProbabilities(rs, params, m.HomeTeam, m.AwayTeam)
		if err != nil {
			return nil, fmt.Errorf("failed to score validation fixture %s vs %s: %w", m.HomeTeam, m.AwayTeam, err)
		}
		candidates = append(candidates, blend.Candidate{
			Model:   ps,
			Odds:    m.Closing,
			Outcome: m.Outcome(),
		})
	}
	return candidates, nil
}

// blendCandidates turns blend candidates into calibration observations using
// the learned weight. Fixtures without playable odds contribute their raw
// model forecast, exactly as the prediction path would serve them.
func blendCandidates(candidates []blend.Candidate, alpha float64) ([]calibration.Observation, error) {
	observations := make([]calibration.Observation, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]

		ps := c.Model
		if c.Odds != nil && c.Odds.IsValid() {
			blended, err := blend.Mix(c.Model, c.Odds, alpha)
			if err != nil {
				return nil, fmt.Errorf("blend failed on validation fixture: %w", err)
			}
			ps = blended
		}
		observations = append(observations, calibration.Observation{Probabilities: ps, Outcome: c.Outcome})
	}
	return observations, nil
}

// DatasetHash returns the SHA-256 of the canonical ordered encoding of the
// match set. Identical windows hash identically, so retrains on unchanged
// data are recognizable in the audit trail.
func DatasetHash(matches []models.Match) string {
	h := sha256.New()
	for i := range matches {
		m := &matches[i]

		oddsHome, oddsDraw, oddsAway := "", "", ""
		if m.Closing != nil {
			oddsHome = m.Closing.Home.String()
			oddsDraw = m.Closing.Draw.String()
			oddsAway = m.Closing.Away.String()
		}

		fmt.Fprintf(h, "%s|%s|%s|%d|%d|%s|%s|%s\n",
			m.HomeTeam, m.AwayTeam, m.MatchDate.UTC().Format("2006-01-02"),
			m.HomeGoals, m.AwayGoals, oddsHome, oddsDraw, oddsAway)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("training cancelled: %w", err)
	}
	return nil
}

func (s *TrainingService) setStage(runID uuid.UUID, stage RunStage, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[runID]
	if !ok {
		return
	}
	p.Stage = stage
	p.UpdatedAt = time.Now().UTC()
	if cause != nil {
		p.Error = cause.Error()
	}
}

func (s *TrainingService) setIterations(runID uuid.UUID, iterations int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progress[runID]; ok {
		p.Iterations = iterations
		p.UpdatedAt = time.Now().UTC()
	}
}

func (s *TrainingService) setMatchCount(runID uuid.UUID, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progress[runID]; ok {
		p.MatchCount = count
		p.UpdatedAt = time.Now().UTC()
	}
}
