package config

import (
	"math"
	"os"
	"strconv"

	"medinsight/internal/errors"
)

// Config is the complete process configuration
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Data     DataConfig
	Analysis AnalysisConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// LoggingConfig holds log verbosity settings
type LoggingConfig struct {
	Level string
}

// DataConfig points at the history source: an .xlsx workbook or a
// directory of CSV exports.
type DataConfig struct {
	File string
}

// AnalysisConfig holds report-level knobs
type AnalysisConfig struct {
	BodyWeightKg float64
	WindowDays   int
	ProfilePath  string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Logging: LoggingConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "INFO"),
		},
		Data: DataConfig{
			File: getEnvOrDefault("DATA_FILE", ""),
		},
		Analysis: AnalysisConfig{
			BodyWeightKg: getEnvFloatOrDefault("BODY_WEIGHT_KG", 70),
			WindowDays:   getEnvIntOrDefault("WINDOW_DAYS", 30),
			ProfilePath:  getEnvOrDefault("ANALYSIS_PROFILE", ""),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validate(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT must not be empty")
	}
	if config.Analysis.WindowDays <= 0 {
		return errors.ConfigInvalid("WINDOW_DAYS must be positive")
	}
	w := config.Analysis.BodyWeightKg
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return errors.ConfigInvalid("BODY_WEIGHT_KG must be a positive number")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
