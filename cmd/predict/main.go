package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/goalodds/internal/config"
	"github.com/yourusername/goalodds/internal/database"
	"github.com/yourusername/goalodds/internal/logger"
	"github.com/yourusername/goalodds/internal/models"
	"github.com/yourusername/goalodds/internal/registry"
	"github.com/yourusername/goalodds/internal/repository"
	"github.com/yourusername/goalodds/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile   string
	homeTeam     string
	awayTeam     string
	kickoffDate  string
	oddsHome     float64
	oddsDraw     float64
	oddsAway     float64
	fixturesFile string
	exploratory  string
	requestedBy  string
	jsonOutput   bool
	appLog       *logrus.Logger
	cfg          *config.Config
	db           *database.DB
	repos        *repository.Repositories
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVar(&homeTeam, "home", "", "Home team")
	rootCmd.Flags().StringVar(&awayTeam, "away", "", "Away team")
	rootCmd.Flags().StringVar(&kickoffDate, "date", "", "Kickoff date (YYYY-MM-DD, defaults to today)")
	rootCmd.Flags().Float64Var(&oddsHome, "odds-home", 0, "Closing home price")
	rootCmd.Flags().Float64Var(&oddsDraw, "odds-draw", 0, "Closing draw price")
	rootCmd.Flags().Float64Var(&oddsAway, "odds-away", 0, "Closing away price")
	rootCmd.Flags().StringVarP(&fixturesFile, "fixtures", "f", "", "JSON file with a list of fixtures to predict in batch")
	rootCmd.Flags().StringVar(&exploratory, "exploratory", "", "Exploratory variant (raw_model or draw_lean); output is heuristic only")
	rootCmd.Flags().StringVar(&requestedBy, "requested-by", "cli", "Identity recorded in the audit log for exploratory output")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print predictions as JSON")
}

var rootCmd = &cobra.Command{
	Use:   "predict",
	Short: "Probability sets for fixtures from the active model",
	Long: `Runs the prediction chain against the active model artifact: score grid,
draw adjustment, model/market blend when closing odds are given, calibration.
Predict a single fixture with --home and --away, or a batch with --fixtures
pointing at a JSON array of {home_team, away_team, match_date, closing_odds}.
Exploratory variants bypass parts of the chain and are flagged heuristic.`,
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

		if err := runPredict(cmd.Context()); err != nil {
			appLog.WithError(err).Error("Prediction failed")
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

func runPredict(ctx context.Context) error {
	reg := registry.NewRegistry(repos.Artifact, repos.TrainingRun, appLog)
	predictionSvc := service.NewPredictionService(repos.Signal, reg, cfg, appLog)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if fixturesFile != "" {
		return predictFromFile(ctx, predictionSvc)
	}

	fixture, err := buildFixture()
	if err != nil {
		return err
	}

	var prediction *service.Prediction
	if exploratory != "" {
		prediction, err = predictionSvc.PredictExploratory(ctx, fixture, exploratory, requestedBy)
	} else {
		prediction, err = predictionSvc.Predict(ctx, fixture)
	}
	if err != nil {
		return err
	}

	return output([]*service.Prediction{prediction})
}

// buildFixture assembles the single fixture described by the flags.
func buildFixture() (*models.Match, error) {
	if homeTeam == "" || awayTeam == "" {
		return nil, fmt.Errorf("both --home and --away are required")
	}
	if homeTeam == awayTeam {
		return nil, fmt.Errorf("home and away teams must differ")
	}

	matchDate := time.Now().UTC()
	if kickoffDate != "" {
		parsed, err := time.Parse("2006-01-02", kickoffDate)
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q: %w", kickoffDate, err)
		}
		matchDate = parsed
	}

	fixture := &models.Match{
		ID:        uuid.New(),
		HomeTeam:  homeTeam,
		AwayTeam:  awayTeam,
		MatchDate: matchDate,
	}

	quoted := 0
	for _, price := range []float64{oddsHome, oddsDraw, oddsAway} {
		if price != 0 {
			quoted++
		}
	}
	switch quoted {
	case 0:
	case 3:
		fixture.Closing = &models.ClosingOdds{
			Home: decimal.NewFromFloat(oddsHome),
			Draw: decimal.NewFromFloat(oddsDraw),
			Away: decimal.NewFromFloat(oddsAway),
		}
		if !fixture.Closing.IsValid() {
			return nil, fmt.Errorf("closing odds must all be greater than 1.0")
		}
	default:
		return nil, fmt.Errorf("closing odds require all three of --odds-home, --odds-draw and --odds-away")
	}

	return fixture, nil
}

func predictFromFile(ctx context.Context, svc *service.PredictionService) error {
	data, err := os.ReadFile(fixturesFile)
	if err != nil {
		return fmt.Errorf("failed to read fixtures file: %w", err)
	}

	var fixtures []*models.Match
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("failed to parse fixtures file: %w", err)
	}
	if len(fixtures) == 0 {
		return fmt.Errorf("fixtures file contains no fixtures")
	}

	for _, fixture := range fixtures {
		if fixture.ID == uuid.Nil {
			fixture.ID = uuid.New()
		}
	}

	predictions, err := svc.PredictBatch(ctx, fixtures)
	if err != nil {
		return err
	}

	if len(predictions) < len(fixtures) {
		appLog.WithFields(logrus.Fields{
			"requested": len(fixtures),
			"predicted": len(predictions),
		}).Warn("Some fixtures could not be predicted")
	}

	return output(predictions)
}

func output(predictions []*service.Prediction) error {
	if jsonOutput {
		var payload interface{} = predictions
		if len(predictions) == 1 {
			payload = predictions[0]
		}
		encoded, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode predictions: %w", err)
		}
		fmt.Println(string(encoded))
		return nil
	}

	for _, p := range predictions {
		printPrediction(p)
	}
	return nil
}

func printPrediction(p *service.Prediction) {
	ps := p.Probabilities
	fmt.Printf("\n=== %s vs %s ===\n", p.HomeTeam, p.AwayTeam)
	fmt.Printf("Model:          %s %s\n", p.ModelType, p.ModelVersion)
	fmt.Printf("Home Win:       %.1f%%\n", ps.Home*100)
	fmt.Printf("Draw:           %.1f%%\n", ps.Draw*100)
	fmt.Printf("Away Win:       %.1f%%\n", ps.Away*100)
	fmt.Printf("Expected Goals: %.2f - %.2f\n", ps.LambdaHome, ps.LambdaAway)
	fmt.Printf("Entropy:        %.3f\n", ps.Entropy)
	fmt.Printf("Calibrated:     %v\n", ps.Calibrated)
	if ps.Heuristic {
		fmt.Printf("Heuristic:      true (not for decision support)\n")
	}
	if p.CacheHit {
		fmt.Printf("Cache Hit:      true\n")
	}
}
