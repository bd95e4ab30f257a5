package config

import (
	"os"
	"strconv"

	"leavingrate/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathConfig
	Analysis AnalysisConfig
	Report   ReportConfig
	Database DatabaseConfig
	LogLevel string
}

// PathConfig holds file system paths
type PathConfig struct {
	InputDir  string
	OutputDir string
	PerRunDir bool // write each run into its own timestamped subdirectory
}

// AnalysisConfig holds the tunables of the session analysis
type AnalysisConfig struct {
	Workers             int
	ExactMatchTolerance float64
	MinPositionSupport  int
}

// ReportConfig holds report rendering settings
type ReportConfig struct {
	MaxPositions int  // exit-probability positions listed per side
	HTML         bool // also render reports to HTML
}

// DatabaseConfig holds the optional results database; an empty URL
// disables the export
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// Enabled reports whether a results database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Paths:    *loadPathConfig(),
		Analysis: *loadAnalysisConfig(),
		Report:   *loadReportConfig(),
		Database: *loadDatabaseConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		InputDir:  getEnvOrDefault("INPUT_DIR", "."),
		OutputDir: getEnvOrDefault("OUTPUT_DIR", "./leaving_rate_results"),
		PerRunDir: getEnvBoolOrDefault("PER_RUN_DIR", false),
	}
}

func loadAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Workers:             getEnvIntOrDefault("WORKERS", 4),
		ExactMatchTolerance: getEnvFloatOrDefault("EXACT_MATCH_TOLERANCE", 0.001),
		MinPositionSupport:  getEnvIntOrDefault("MIN_POSITION_SUPPORT", 5),
	}
}

func loadReportConfig() *ReportConfig {
	return &ReportConfig{
		MaxPositions: getEnvIntOrDefault("REPORT_MAX_POSITIONS", 10),
		HTML:         getEnvBoolOrDefault("REPORT_HTML", false),
	}
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

// Validate checks ranges after flags or environment have been applied
func (c *Config) Validate() error {
	if c.Paths.InputDir == "" {
		return errors.ConfigInvalid("input directory is required")
	}
	if c.Paths.OutputDir == "" {
		return errors.ConfigInvalid("output directory is required")
	}
	if c.Analysis.Workers < 1 {
		return errors.ConfigInvalid("WORKERS must be at least 1")
	}
	if c.Analysis.ExactMatchTolerance <= 0 || c.Analysis.ExactMatchTolerance >= 1 {
		return errors.ConfigInvalid("EXACT_MATCH_TOLERANCE must be in (0, 1)")
	}
	if c.Analysis.MinPositionSupport < 1 {
		return errors.ConfigInvalid("MIN_POSITION_SUPPORT must be at least 1")
	}
	if c.Report.MaxPositions < 1 {
		return errors.ConfigInvalid("REPORT_MAX_POSITIONS must be at least 1")
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
