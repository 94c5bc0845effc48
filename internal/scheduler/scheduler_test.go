package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/registry"
	"github.com/yourusername/goalodds/internal/repository"
	"github.com/yourusername/goalodds/internal/service"
)

func newTestScheduler() (*Scheduler, *repository.MemoryTrainingRunRepository) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	artifacts := repository.NewMemoryArtifactRepository()
	runs := repository.NewMemoryTrainingRunRepository()
	reg := registry.NewRegistry(artifacts, runs, log)
	svc := service.NewTrainingService(repository.NewMemoryMatchRepository(), reg, &config.Config{}, log)

	return NewScheduler(svc, log), runs
}

func TestScheduleRetrainingRejectsInvalidExpression(t *testing.T) {
	s, _ := newTestScheduler()

	err := s.ScheduleRetraining("every day at dawn", models.ModelTypeDixonColes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to add job")
}

func TestStartWithoutJobs(t *testing.T) {
	s, _ := newTestScheduler()

	require.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestScheduleThenStartAndStop(t *testing.T) {
	s, _ := newTestScheduler()

	require.NoError(t, s.ScheduleRetraining("0 4 * * *", models.ModelTypeDixonColes))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	next := s.GetNextRun()
	require.False(t, next.IsZero())
	assert.True(t, next.After(time.Now().Add(-time.Minute)))
	assert.Equal(t, time.UTC, next.Location(), "schedules are evaluated in UTC")
	assert.Len(t, s.Entries(), 1)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}

func TestScheduleWhileRunningRejected(t *testing.T) {
	s, _ := newTestScheduler()

	require.NoError(t, s.ScheduleRetraining("@daily", models.ModelTypeDixonColes))
	require.NoError(t, s.Start())
	defer func() { _ = s.Stop() }()

	require.Error(t, s.ScheduleRetraining("@hourly", models.ModelTypeDixonColes))
}

func TestStartTwice(t *testing.T) {
	s, _ := newTestScheduler()

	require.NoError(t, s.ScheduleRetraining("@daily", models.ModelTypeDixonColes))
	require.NoError(t, s.Start())
	defer func() { _ = s.Stop() }()

	require.Error(t, s.Start())
}

func TestStopWhenNotRunning(t *testing.T) {
	s, _ := newTestScheduler()

	require.NoError(t, s.Stop())
}

func TestRetrainSkipsWhenRunInFlight(t *testing.T) {
	s, runs := newTestScheduler()
	ctx := context.Background()

	inflight := &models.TrainingRun{
		ID:        uuid.New(),
		ModelType: models.ModelTypeDixonColes,
		Status:    models.RunStatusTraining,
		StartedAt: time.Now().UTC(),
	}
	require.NoError(t, runs.Create(ctx, inflight))

	s.retrain(models.ModelTypeDixonColes)

	recent, err := runs.ListRecent(ctx, models.ModelTypeDixonColes, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1, "a skipped tick must not record a new run")
}
