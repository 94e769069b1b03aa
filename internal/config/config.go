package config

import (
	"os"
	"strconv"

	"gocompare/internal/errors"
)

// Version is stamped into run fingerprints so stored results are traceable
// to the code that produced them.
const Version = "0.3.0"

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Paths    PathConfig
	Analysis AnalysisConfig
	Report   ReportConfig
}

// DatabaseConfig holds database connection settings. URL may be empty, in
// which case binaries fall back to in-memory storage.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	APIPort string
	UIPort  string
	GinMode string
}

// PathConfig holds file system paths
type PathConfig struct {
	DataPath   string
	DesignPath string
	OutputDir  string
}

// AnalysisConfig holds analysis settings that override design defaults
type AnalysisConfig struct {
	InputSheet      string
	NormalityAlpha  float64
	CorrectionAlpha float64
	Strategy        string
}

// ReportConfig holds workbook styling settings
type ReportConfig struct {
	AddBlankRows   bool
	ApplyTimestamp bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Paths:    loadPathConfig(),
		Analysis: loadAnalysisConfig(),
		Report:   loadReportConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:     getEnvOrDefault("DATABASE_URL", ""),
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		APIPort: getEnvOrDefault("API_PORT", "8080"),
		UIPort:  getEnvOrDefault("UI_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadPathConfig() PathConfig {
	return PathConfig{
		DataPath:   getEnvOrDefault("DATA_PATH", "data/dataset.xlsx"),
		DesignPath: getEnvOrDefault("DESIGN_PATH", "design.yaml"),
		OutputDir:  getEnvOrDefault("OUTPUT_DIR", "output"),
	}
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		InputSheet:      getEnvOrDefault("INPUT_SHEET", "Sheet1"),
		NormalityAlpha:  getEnvFloatOrDefault("NORMALITY_ALPHA", 0.05),
		CorrectionAlpha: getEnvFloatOrDefault("CORRECTION_ALPHA", 0.05),
		Strategy:        getEnvOrDefault("TEST_STRATEGY", "mannwhitney"),
	}
}

func loadReportConfig() ReportConfig {
	return ReportConfig{
		AddBlankRows:   getEnvBoolOrDefault("ADD_BLANK_ROWS", true),
		ApplyTimestamp: getEnvBoolOrDefault("APPLY_TIMESTAMP", false),
	}
}

func validateConfig(config *Config) error {
	if a := config.Analysis.NormalityAlpha; a <= 0 || a >= 1 {
		return errors.ConfigInvalid("NORMALITY_ALPHA must be in (0,1)")
	}
	if a := config.Analysis.CorrectionAlpha; a <= 0 || a >= 1 {
		return errors.ConfigInvalid("CORRECTION_ALPHA must be in (0,1)")
	}
	if config.Analysis.Strategy == "" {
		return errors.ConfigInvalid("TEST_STRATEGY cannot be empty")
	}
	if config.Analysis.InputSheet == "" {
		return errors.ConfigInvalid("INPUT_SHEET cannot be empty")
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
