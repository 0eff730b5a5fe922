package config

import (
	"os"
	"strconv"
	"time"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	AI        AIConfig
	Curation  CurationConfig
	Tracker   TrackerConfig
	Server    ServerConfig
	Reporting ReportingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// AIConfig holds settings for the external text-generation service
type AIConfig struct {
	OpenAIKey       string
	OpenAIModel     string
	SystemContext   string
	MaxTokens       int
	Temperature     float64
	RequestTimeout  time.Duration
	RequestsPerMin  int
	DailyLimit      int
	RetryCooldown   time.Duration
	CorrectiveTries int
}

// CurationConfig holds the plausibility and matching tunables.
// Thresholds here are empirically chosen, not invariants; keep them in
// config so labeled title pairs can be replayed against alternatives.
type CurationConfig struct {
	TitleOverlapThreshold float64
	LaughTestThreshold    float64
	StrictDomainCheck     bool
	DryRun                bool
	MinEffectiveness      float64
	MaxEffectiveness      float64
}

// TrackerConfig holds work-tracker targets and limits
type TrackerConfig struct {
	BatchSize        int
	ConnectionTarget int
	CoverageTarget   float64
	QualityCeiling   float64
	QualityWindow    int
	ClaimLease       time.Duration
	FailureGrace     int
	PriorityTier     string
}

// ServerConfig holds status server settings
type ServerConfig struct {
	Port    string
	Enabled bool
}

// ReportingConfig holds run-report output settings
type ReportingConfig struct {
	XLSXPath string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	aiConfig, err := loadAIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AI configuration")
	}
	config.AI = *aiConfig

	config.Curation = *loadCurationConfig()
	config.Tracker = *loadTrackerConfig()
	config.Server = *loadServerConfig()
	config.Reporting = *loadReportingConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:     url,
		SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
	}, nil
}

func loadAIConfig() (*AIConfig, error) {
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		return nil, errors.ConfigInvalid("OPENAI_API_KEY is required")
	}

	model := os.Getenv("LLM_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &AIConfig{
		OpenAIKey:       openaiKey,
		OpenAIModel:     model,
		SystemContext:   "You are a careful curation assistant. Output exactly what the user asks for.",
		MaxTokens:       getEnvIntOrDefault("MAX_TOKENS", 4000),
		Temperature:     getEnvFloatOrDefault("TEMPERATURE", 0.7),
		RequestTimeout:  getEnvDurationOrDefault("LLM_TIMEOUT", 120*time.Second),
		RequestsPerMin:  getEnvIntOrDefault("LLM_REQUESTS_PER_MINUTE", 20),
		DailyLimit:      getEnvIntOrDefault("LLM_DAILY_LIMIT", 1500),
		RetryCooldown:   getEnvDurationOrDefault("LLM_RETRY_COOLDOWN", 30*time.Second),
		CorrectiveTries: getEnvIntOrDefault("LLM_CORRECTIVE_TRIES", 2),
	}, nil
}

func loadCurationConfig() *CurationConfig {
	return &CurationConfig{
		TitleOverlapThreshold: getEnvFloatOrDefault("TITLE_OVERLAP_THRESHOLD", 0.75),
		LaughTestThreshold:    getEnvFloatOrDefault("LAUGH_TEST_THRESHOLD", 70),
		StrictDomainCheck:     getEnvBoolOrDefault("STRICT_DOMAIN_CHECK", false),
		DryRun:                getEnvBoolOrDefault("DRY_RUN", false),
		MinEffectiveness:      getEnvFloatOrDefault("MIN_EFFECTIVENESS", 3.5),
		MaxEffectiveness:      getEnvFloatOrDefault("MAX_EFFECTIVENESS", 5.0),
	}
}

func loadTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		BatchSize:        getEnvIntOrDefault("BATCH_SIZE", 10),
		ConnectionTarget: getEnvIntOrDefault("CONNECTION_TARGET", 2),
		CoverageTarget:   getEnvFloatOrDefault("COVERAGE_TARGET", 0.95),
		QualityCeiling:   getEnvFloatOrDefault("QUALITY_CEILING", 0.80),
		QualityWindow:    getEnvIntOrDefault("QUALITY_WINDOW", 3),
		ClaimLease:       getEnvDurationOrDefault("CLAIM_LEASE", 30*time.Minute),
		FailureGrace:     getEnvIntOrDefault("FAILURE_GRACE", 3),
		PriorityTier:     getEnvOrDefault("PRIORITY_TIER", "auto"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("STATUS_PORT", "8080"),
		Enabled: getEnvBoolOrDefault("STATUS_SERVER_ENABLED", false),
	}
}

func loadReportingConfig() *ReportingConfig {
	return &ReportingConfig{
		XLSXPath: getEnvOrDefault("REPORT_XLSX_PATH", ""),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.AI.OpenAIKey == "" {
		return errors.ConfigInvalid("OpenAI API key is required")
	}
	if config.Curation.TitleOverlapThreshold <= 0 || config.Curation.TitleOverlapThreshold > 1 {
		return errors.ConfigInvalid("title overlap threshold must be in (0, 1]")
	}
	if config.Tracker.BatchSize <= 0 {
		return errors.ConfigInvalid("batch size must be positive")
	}
	switch config.Tracker.PriorityTier {
	case "auto", "zero", "single", "double":
	default:
		return errors.ConfigInvalid("priority tier must be one of auto, zero, single, double")
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

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
