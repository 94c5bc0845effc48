// Package config provides configuration management for the goalodds application.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Model       ModelConfig       `mapstructure:"model" validate:"required"`
	Draw        DrawConfig        `mapstructure:"draw" validate:"required"`
	Blend       BlendConfig       `mapstructure:"blend" validate:"required"`
	Calibration CalibrationConfig `mapstructure:"calibration" validate:"required"`
	Training    TrainingConfig    `mapstructure:"training" validate:"required"`
	Prediction  PredictionConfig  `mapstructure:"prediction" validate:"required"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	AWS         AWSConfig         `mapstructure:"aws"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// ModelConfig represents the strength-fitting and likelihood parameters
type ModelConfig struct {
	Type               string  `mapstructure:"type" validate:"required,modeltype"`
	DecayRate          float64 `mapstructure:"decay_rate" validate:"gte=0"`
	MaxGoals           int     `mapstructure:"max_goals" validate:"required,gt=0,lte=25"`
	MinMatches         int     `mapstructure:"min_matches" validate:"required,gt=0"`
	MinTrainingMatches int     `mapstructure:"min_training_matches" validate:"required,gt=0"`
	MaxIterations      int     `mapstructure:"max_iterations" validate:"required,gt=0"`
	ConvergenceTol     float64 `mapstructure:"convergence_tol" validate:"required,gt=0"`
	PriorHomeAdvantage float64 `mapstructure:"prior_home_advantage"`
	RhoMin             float64 `mapstructure:"rho_min" validate:"gte=-1"`
	RhoMax             float64 `mapstructure:"rho_max" validate:"lte=1"`
}

// DrawConfig represents the structural draw-adjustment bounds
type DrawConfig struct {
	MultiplierMin float64 `mapstructure:"multiplier_min" validate:"required,gt=0"`
	MultiplierMax float64 `mapstructure:"multiplier_max" validate:"required,gt=0"`
	MaxDrawShare  float64 `mapstructure:"max_draw_share" validate:"required,gt=0,lte=1"`
}

// BlendConfig represents the model/market blending configuration
type BlendConfig struct {
	AlphaStep    float64 `mapstructure:"alpha_step" validate:"required,gt=0,lte=0.5"`
	DefaultAlpha float64 `mapstructure:"default_alpha" validate:"gte=0,lte=1"`
}

// CalibrationConfig represents per-outcome isotonic calibration minimums
type CalibrationConfig struct {
	MinHomeSamples int `mapstructure:"min_home_samples" validate:"required,gt=0"`
	MinDrawSamples int `mapstructure:"min_draw_samples" validate:"required,gt=0"`
	MinAwaySamples int `mapstructure:"min_away_samples" validate:"required,gt=0"`
}

// TrainingConfig represents training window and scheduling configuration
type TrainingConfig struct {
	WindowDays         int     `mapstructure:"window_days" validate:"required,gt=0"`
	ValidationFraction float64 `mapstructure:"validation_fraction" validate:"required,gt=0,lt=1"`
	Schedule           string  `mapstructure:"schedule"`
	ScheduleEnabled    bool    `mapstructure:"schedule_enabled"`
}

// PredictionConfig represents the prediction-path cache configuration
type PredictionConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize    int `mapstructure:"cache_max_size" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// AWSConfig represents the optional AWS Secrets Manager overlay
type AWSConfig struct {
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SecretsEnabled checks whether the AWS secrets overlay is configured
func (c *Config) SecretsEnabled() bool {
	return c.AWS.Region != "" && c.AWS.SecretName != ""
}
