package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Document source
	ReportDir string

	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// Pipeline configuration
	Pipeline PipelineConfig
}

// PipelineConfig holds reconciliation thresholds and parsing parameters.
// Thresholds are pipeline-wide; per-entity overrides were considered and
// rejected because no report revision has ever needed them.
type PipelineConfig struct {
	// Anomaly detection
	AnomalyDropFloor     int     // ticket delta below -floor is flagged
	AnomalyGrowthFactor  float64 // new total above factor*prior is flagged
	MaterialityThreshold int     // min abs(ticket delta) that triggers backfill

	// Pacing curve
	PacingWindowWeeks   int     // weekly points per performance, weeks-out N..0
	BackfillConfidence  float64 // fixed confidence recorded on adjustments
	ProvenanceObserved  string
	ProvenanceBackfill  string
	ProvenanceIngestion string // tag written on snapshots produced by this pipeline

	// Parsing
	PerformanceCodePattern string // shape of a performance code token
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		ReportDir: getEnvOrDefault("REPORT_DIR", "./reports"),

		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "boxoffice"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "boxoffice"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "boxoffice123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		// Pipeline configuration
		Pipeline: DefaultPipelineConfig(),
	}
}

// DefaultPipelineConfig returns pipeline thresholds from the environment,
// falling back to the values the box office has run with since 2019.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		AnomalyDropFloor:     getEnvInt("PIPELINE_ANOMALY_DROP_FLOOR", 50),
		AnomalyGrowthFactor:  getEnvFloat("PIPELINE_ANOMALY_GROWTH_FACTOR", 2.0),
		MaterialityThreshold: getEnvInt("PIPELINE_MATERIALITY_THRESHOLD", 10),

		PacingWindowWeeks:   getEnvInt("PIPELINE_PACING_WINDOW_WEEKS", 10),
		BackfillConfidence:  getEnvFloat("PIPELINE_BACKFILL_CONFIDENCE", 0.75),
		ProvenanceObserved:  "observed",
		ProvenanceBackfill:  "backfill",
		ProvenanceIngestion: getEnvOrDefault("PIPELINE_PROVENANCE_TAG", "report-import"),

		PerformanceCodePattern: getEnvOrDefault("PIPELINE_CODE_PATTERN", `^[A-Z]{1,3}\d{1,4}$`),
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var floatValue float64
	if _, err := fmt.Sscanf(value, "%f", &floatValue); err != nil {
		return defaultValue
	}
	return floatValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
