package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// AnalysisConfig contains the tunables of the analysis pipeline.
type AnalysisConfig struct {
	// Threshold is the minimum |price change ratio| that triggers a
	// Buy or Sell decision.
	Threshold float64 `yaml:"threshold" envconfig:"THRESHOLD" validate:"gt=0,lt=1"`
	// MAWindow is the trailing window of the moving-average feature.
	MAWindow int `yaml:"ma_window" envconfig:"MA_WINDOW" validate:"min=2"`
	// TestFraction is the held-out share of the train/test split.
	TestFraction float64 `yaml:"test_fraction" envconfig:"TEST_FRACTION" validate:"gt=0,lt=1"`
	// Seed drives the split shuffle and the forest bootstrap. Fixed so
	// identical input reproduces identical models and decisions.
	Seed int64 `yaml:"seed" envconfig:"SEED"`
	// Trees is the ensemble size of the per-company regressor.
	Trees int `yaml:"trees" envconfig:"TREES" validate:"min=1"`
	// MaxDepth bounds each regression tree.
	MaxDepth int `yaml:"max_depth" envconfig:"MAX_DEPTH" validate:"min=1"`
	// Parallelism is the number of companies analyzed concurrently.
	Parallelism int `yaml:"parallelism" envconfig:"PARALLELISM" validate:"min=1"`
}

// ServerConfig contains HTTP report server configuration.
type ServerConfig struct {
	Port            int             `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration   `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration   `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration   `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains request rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration.
type PathsConfig struct {
	BaseDir    string `yaml:"base_dir" envconfig:"BASE_DIR"`
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR"`
	ResultsDir string `yaml:"results_dir" envconfig:"RESULTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// Load builds the configuration in three layers: built-in defaults, then an
// optional YAML config file, then environment variables. Defaults live in
// Default() rather than struct tags, so envconfig touches only the fields an
// STOCKAI_* variable actually sets and never clobbers file values.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := findConfigFile(); configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process("STOCKAI", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// findConfigFile returns the first config file found in common locations,
// or empty when only defaults and env vars apply.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Threshold:    0.05,
			MAWindow:     5,
			TestFraction: 0.2,
			Seed:         42,
			Trees:        100,
			MaxDepth:     10,
			Parallelism:  1,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/stockai.log",
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ResultsDir: "results",
			LogsDir:    "logs",
		},
	}
}
