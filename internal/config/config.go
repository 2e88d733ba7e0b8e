package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all deployment configuration.
type Config struct {
	Data       DataConfig
	Logging    LogConfig
	Extraction ExtractionConfig
}

// DataConfig holds dataset and cache locations.
type DataConfig struct {
	// Dir is the root data directory; the root context and parameter
	// documents live here.
	Dir string `envconfig:"DATA_DIR" default:"data"`

	TrainDir string `envconfig:"TRAIN_DIR" default:""`
	ValDir   string `envconfig:"VAL_DIR" default:""`
	TestDir  string `envconfig:"TEST_DIR" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// ExtractionConfig holds runtime knobs of the compute phase.
type ExtractionConfig struct {
	// Workers bounds compute-phase parallelism; 0 means one worker per CPU.
	Workers int `envconfig:"WORKERS" default:"0"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Dir: "data",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Extraction: ExtractionConfig{
			Workers: 0,
		},
	}
}
