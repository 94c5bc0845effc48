package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/database"
	"github.com/yourusername/goalodds/internal/health"
	"github.com/yourusername/goalodds/internal/logger"
	"github.com/yourusername/goalodds/internal/metrics"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/registry"
	"github.com/yourusername/goalodds/internal/repository"
	"github.com/yourusername/goalodds/internal/scheduler"
	"github.com/yourusername/goalodds/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	modelType  string
	daemon     bool
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&modelType, "model-type", "m", "", "Model type to train (defaults to model.type from config)")
	rootCmd.Flags().BoolVarP(&daemon, "daemon", "d", false, "Run the retraining scheduler instead of a single run")
}

var rootCmd = &cobra.Command{
	Use:   "train",
	Short: "Train and promote a match-outcome model",
	Long: `Runs the training lifecycle end to end: loads the historical window, fits team
strengths and match parameters, learns the model/market blend weight, fits the
calibration curves, validates on the held-out tail and atomically promotes the
resulting artifact. With --daemon (or training.schedule_enabled in the config)
the run repeats on the configured cron schedule instead.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		defer db.Close()

		if daemon || cfg.Training.ScheduleEnabled {
			if err := runScheduled(); err != nil {
				appLog.WithError(err).Error("Scheduler failed")
				os.Exit(1)
			}
			return
		}

		if err := runOnce(); err != nil {
			appLog.WithError(err).Error("Training failed")
			os.Exit(1)
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	if cfg.SecretsEnabled() {
		if err := config.LoadSecretsFromAWS(cfg, cfg.AWS.Region, cfg.AWS.SecretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	appLog = logger.NewLogger(cfg.App.LogLevel)

	var err error
	db, err = database.Initialize(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	return nil
}

func resolveModelType() models.ModelType {
	if modelType != "" {
		return models.ModelType(modelType)
	}
	return models.ModelType(cfg.Model.Type)
}

// runOnce starts a single training run, follows its progress and prints the
// outcome. An interrupt cancels the run before promotion.
func runOnce() error {
	reg := registry.NewRegistry(repos.Artifact, repos.TrainingRun, appLog)
	trainingSvc := service.NewTrainingService(repos.Match, reg, cfg, appLog)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mt := resolveModelType()
	run, err := trainingSvc.StartRun(ctx, mt)
	if err != nil {
		return fmt.Errorf("failed to start training run: %w", err)
	}

	appLog.WithFields(logrus.Fields{
		"run_id":     run.ID,
		"model_type": mt,
	}).Info("Training run started")

	go func() {
		<-ctx.Done()
		trainingSvc.Cancel(run.ID)
	}()
	go followProgress(trainingSvc, run.ID)

	// Wait on a fresh context: after an interrupt the run still has to reach
	// its terminal state so the report reflects the persisted outcome.
	waitCtx, cancelWait := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancelWait()

	final, err := trainingSvc.Wait(waitCtx, run.ID)
	if err != nil {
		return fmt.Errorf("failed waiting for training run: %w", err)
	}

	printReport(waitCtx, reg, final)

	if final.Status != models.RunStatusActive {
		return fmt.Errorf("%w: %s", models.ErrTrainingFailed, final.Error)
	}
	return nil
}

// runScheduled blocks serving scheduled retraining plus the health and
// metrics endpoints until the process is signalled.
func runScheduled() error {
	if cfg.Training.Schedule == "" {
		return fmt.Errorf("training.schedule must be set to run the scheduler")
	}

	reg := registry.NewRegistry(repos.Artifact, repos.TrainingRun, appLog)
	trainingSvc := service.NewTrainingService(repos.Match, reg, cfg, appLog)
	mt := resolveModelType()

	sched := scheduler.NewScheduler(trainingSvc, appLog)
	if err := sched.ScheduleRetraining(cfg.Training.Schedule, mt); err != nil {
		return fmt.Errorf("failed to schedule retraining: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthSrv := newHealthServer(reg, mt)
	if err := healthSrv.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	healthSrv.SetReady(true)

	appLog.WithFields(logrus.Fields{
		"model_type": mt,
		"schedule":   cfg.Training.Schedule,
		"next_run":   sched.GetNextRun().Format(time.RFC3339),
	}).Info("Retraining scheduler running")

	<-ctx.Done()
	appLog.Info("Shutdown signal received")

	healthSrv.SetReady(false)
	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error stopping scheduler")
	}
	if err := healthSrv.Shutdown(); err != nil {
		appLog.WithError(err).Error("Error stopping health server")
	}

	return nil
}

func newHealthServer(reg *registry.Registry, mt models.ModelType) *health.Server {
	hcfg := health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Port:        strconv.Itoa(cfg.Metrics.Port),
		Logger:      appLog,
		DB:          db,
		Model: health.ModelCheckFunc(func(ctx context.Context) error {
			_, err := reg.Active(ctx, mt)
			return err
		}),
	}
	if cfg.Metrics.Enabled {
		hcfg.Metrics = metrics.Handler()
		hcfg.MetricsPath = cfg.Metrics.Path
	}
	return health.NewServer(hcfg)
}

// followProgress logs each stage transition of the background run.
func followProgress(svc *service.TrainingService, runID uuid.UUID) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var last service.RunStage
	for range ticker.C {
		p, ok := svc.Progress(runID)
		if !ok {
			return
		}
		if p.Stage != last {
			last = p.Stage
			appLog.WithFields(logrus.Fields{
				"stage":       p.Stage,
				"match_count": p.MatchCount,
				"iterations":  p.Iterations,
			}).Info("Training progress")
		}
		if p.Stage.Terminal() {
			return
		}
	}
}

func printReport(ctx context.Context, reg *registry.Registry, final *models.TrainingRun) {
	fmt.Println("\n=== Training Run Report ===")
	fmt.Printf("Run ID:      %s\n", final.ID)
	fmt.Printf("Model Type:  %s\n", final.ModelType)
	fmt.Printf("Status:      %s\n", final.Status)
	fmt.Printf("Matches:     %d\n", final.MatchCount)
	fmt.Printf("Window:      %s to %s\n", final.DateFrom.Format("2006-01-02"), final.DateTo.Format("2006-01-02"))
	fmt.Printf("Data Hash:   %s\n", final.DataHash)
	fmt.Printf("Duration:    %s\n", final.Duration().Round(time.Millisecond))

	if final.Status != models.RunStatusActive {
		fmt.Printf("Error:       %s\n", final.Error)
		return
	}

	artifact, err := reg.Active(ctx, final.ModelType)
	if err != nil {
		appLog.WithError(err).Error("Failed to load promoted artifact")
		return
	}

	fmt.Printf("\nPromoted Artifact:\n")
	fmt.Printf("  Version:        %s\n", artifact.Version)
	fmt.Printf("  Teams Rated:    %d\n", len(artifact.Ratings))
	fmt.Printf("  Home Advantage: %.4f\n", artifact.Parameters.HomeAdvantage)
	fmt.Printf("  Rho:            %.4f\n", artifact.Parameters.Rho)
	fmt.Printf("  Blend Alpha:    %.2f\n", artifact.Parameters.BlendAlpha)
	fmt.Printf("  Converged:      %v (%d iterations)\n", artifact.Training.Converged, artifact.Training.Iterations)
	if len(artifact.Training.DefaultedTeams) > 0 {
		fmt.Printf("  Defaulted:      %s\n", strings.Join(artifact.Training.DefaultedTeams, ", "))
	}

	fmt.Printf("\nValidation (%d matches):\n", artifact.Metrics.ValidationCount)
	fmt.Printf("  Brier:          %.4f\n", artifact.Metrics.Brier)
	fmt.Printf("  Log Loss:       %.4f\n", artifact.Metrics.LogLoss)
	fmt.Printf("  Accuracy:       %.2f%%\n", artifact.Metrics.Accuracy*100)
	fmt.Printf("  Draw Accuracy:  %.2f%%\n", artifact.Metrics.DrawAccuracy*100)
	if len(artifact.Metrics.CalibratedOutcomes) > 0 {
		fmt.Printf("  Calibrated:     %s\n", strings.Join(artifact.Metrics.CalibratedOutcomes, ", "))
	}
	fmt.Println()
}
