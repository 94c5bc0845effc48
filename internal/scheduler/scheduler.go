// Package scheduler triggers periodic model retraining on cron schedules.
// Schedules are evaluated in UTC so a "retrain nightly at 04:00" job fires at
// the same wall-clock moment regardless of where the process runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/service"
)

// runTimeout bounds a single scheduled retraining, including the wait for
// promotion. A run that overshoots is cancelled rather than left to pile up
// behind the next tick.
const runTimeout = 2 * time.Hour

// Scheduler manages scheduled retraining jobs
type Scheduler struct {
	cron            *cron.Cron
	trainingSvc     *service.TrainingService
	log             *logrus.Logger
	mu              sync.RWMutex
	isRunning       bool
	jobIDs          []cron.EntryID
	gracefulTimeout time.Duration
}

// NewScheduler creates a new scheduler
func NewScheduler(trainingSvc *service.TrainingService, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		trainingSvc:     trainingSvc,
		log:             log,
		jobIDs:          make([]cron.EntryID, 0),
		gracefulTimeout: 30 * time.Second,
	}
}

// ScheduleRetraining schedules periodic retraining for a model type
func (s *Scheduler) ScheduleRetraining(cronExpression string, modelType models.ModelType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		s.retrain(modelType)
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.log.WithFields(logrus.Fields{
		"model_type": modelType,
		"schedule":   cronExpression,
	}).Info("Scheduled periodic retraining")

	return nil
}

// retrain starts one training run and waits for its outcome. A run already in
// flight for the model type is not an error; the tick is skipped and the next
// one tries again.
func (s *Scheduler) retrain(modelType models.ModelType) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	run, err := s.trainingSvc.StartRun(ctx, modelType)
	if err != nil {
		if errors.Is(err, models.ErrTrainingInProgress) {
			s.log.WithField("model_type", modelType).Warn("Skipping scheduled retraining; a run is already in progress")
			return
		}
		s.log.WithError(err).WithField("model_type", modelType).Error("Failed to start scheduled retraining")
		return
	}

	s.log.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"model_type": modelType,
	}).Info("Scheduled retraining started")

	final, err := s.trainingSvc.Wait(ctx, run.ID)
	if err != nil {
		s.log.WithError(err).WithField("run_id", run.ID).Error("Failed waiting for scheduled retraining")
		return
	}

	switch final.Status {
	case models.RunStatusActive:
		fields := logrus.Fields{
			"run_id":     final.ID,
			"model_type": modelType,
			"duration":   final.Duration().String(),
		}
		if final.ArtifactID != nil {
			fields["artifact_id"] = *final.ArtifactID
		}
		s.log.WithFields(fields).Info("Scheduled retraining promoted a new model")
	default:
		s.log.WithFields(logrus.Fields{
			"run_id":     final.ID,
			"model_type": modelType,
			"error":      final.Error,
		}).Warn("Scheduled retraining did not promote")
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.log.WithField("jobs", len(s.jobIDs)).Info("Scheduler started")

	return nil
}

// Stop gracefully stops the scheduler, waiting up to the graceful timeout for
// a running job to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(s.gracefulTimeout):
		s.log.Warn("Scheduler stop timed out with a job still running")
	}

	s.isRunning = false
	s.log.Info("Scheduler stopped")

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			nextTime := entry.Next
			if nextRun.IsZero() || nextTime.Before(nextRun) {
				nextRun = nextTime
			}
		}
	}

	return nextRun
}

// Entries returns information about scheduled entries
func (s *Scheduler) Entries() []cron.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]cron.Entry, 0, len(s.jobIDs))
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			entries = append(entries, entry)
		}
	}

	return entries
}
