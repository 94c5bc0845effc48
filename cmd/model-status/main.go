package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/database"
	"github.com/yourusername/goalodds/internal/logger"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/registry"
	"github.com/yourusername/goalodds/internal/repository"
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
	limit      int
	jsonOutput bool
	appLog     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&modelType, "model-type", "m", "", "Model type to inspect (defaults to model.type from config)")
	rootCmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of artifacts and runs to list")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print registry state as JSON")
}

var rootCmd = &cobra.Command{
	Use:   "model-status",
	Short: "Inspect the model registry",
	Long:  `Displays the active artifact, recent artifact versions and recent training runs for a model type.`,
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

		if err := displayStatus(cmd.Context()); err != nil {
			appLog.WithError(err).Error("Failed to read registry state")
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
	appLog.SetLevel(logrus.WarnLevel)

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

// registryState is the JSON payload for --json output.
type registryState struct {
	ModelType models.ModelType        `json:"model_type"`
	Active    *models.ModelArtifact   `json:"active,omitempty"`
	Artifacts []*models.ModelArtifact `json:"artifacts"`
	Runs      []*models.TrainingRun   `json:"runs"`
}

func displayStatus(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	reg := registry.NewRegistry(repos.Artifact, repos.TrainingRun, appLog)

	mt := models.ModelType(cfg.Model.Type)
	if modelType != "" {
		mt = models.ModelType(modelType)
	}

	state := registryState{ModelType: mt}

	active, err := reg.Active(ctx, mt)
	switch {
	case err == nil:
		state.Active = active
	case errors.Is(err, models.ErrNoActiveModel):
	default:
		return fmt.Errorf("failed to load active artifact: %w", err)
	}

	state.Artifacts, err = reg.ListArtifacts(ctx, mt, limit)
	if err != nil {
		return fmt.Errorf("failed to list artifacts: %w", err)
	}

	state.Runs, err = reg.RecentRuns(ctx, mt, limit)
	if err != nil {
		return fmt.Errorf("failed to list training runs: %w", err)
	}

	if jsonOutput {
		encoded, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode registry state: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	}

	printState(state)
	return nil
}

func printState(state registryState) {
	fmt.Printf("\n=== Model Registry: %s ===\n\n", state.ModelType)

	if state.Active == nil {
		fmt.Println("Active Artifact: none")
	} else {
		a := state.Active
		fmt.Println("Active Artifact:")
		fmt.Printf("  Version:     %s\n", a.Version)
		fmt.Printf("  Promoted:    %s\n", formatTimePtr(a.PromotedAt))
		fmt.Printf("  Teams Rated: %d\n", len(a.Ratings))
		fmt.Printf("  Blend Alpha: %.2f\n", a.Parameters.BlendAlpha)
		fmt.Printf("  Brier:       %.4f over %d validation matches\n", a.Metrics.Brier, a.Metrics.ValidationCount)
		if len(a.Metrics.CalibratedOutcomes) > 0 {
			fmt.Printf("  Calibrated:  %s\n", strings.Join(a.Metrics.CalibratedOutcomes, ", "))
		} else {
			fmt.Printf("  Calibrated:  none (pass-through)\n")
		}
	}

	fmt.Println("\nRecent Artifacts:")
	if len(state.Artifacts) == 0 {
		fmt.Println("  none")
	} else {
		fmt.Printf("  %-18s %-10s %-17s %s\n", "VERSION", "STATUS", "CREATED", "PROMOTED")
		for _, a := range state.Artifacts {
			fmt.Printf("  %-18s %-10s %-17s %s\n",
				a.Version, a.Status, a.CreatedAt.UTC().Format("2006-01-02 15:04"), formatTimePtr(a.PromotedAt))
		}
	}

	fmt.Println("\nRecent Runs:")
	if len(state.Runs) == 0 {
		fmt.Println("  none")
	} else {
		fmt.Printf("  %-36s %-9s %-17s %-10s %-8s %s\n", "RUN ID", "STATUS", "STARTED", "DURATION", "MATCHES", "ERROR")
		for _, r := range state.Runs {
			fmt.Printf("  %-36s %-9s %-17s %-10s %-8d %s\n",
				r.ID, r.Status, r.StartedAt.UTC().Format("2006-01-02 15:04"),
				r.Duration().Round(time.Second), r.MatchCount, truncate(r.Error, 40))
		}
	}
	fmt.Println()
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
