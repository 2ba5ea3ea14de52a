// Package config loads application configuration from environment
// variables with sensible defaults. Command-line flags override values
// at the call site.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Identity
	OwnerID   string
	ProjectID string

	// Firestore
	CredentialsFile string

	// Local storage
	DatabasePath string
	KeywordsFile string

	// Validation
	MaxAmount     float64
	RetentionDays int

	// Dedup cleanup
	DedupMaxAge time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OwnerID:   getEnv("SMSLEDGER_OWNER_ID", ""),
		ProjectID: getEnv("SMSLEDGER_PROJECT_ID", ""),

		CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		DatabasePath: getEnv("SMSLEDGER_DB_PATH", defaultDatabasePath()),
		KeywordsFile: getEnv("SMSLEDGER_KEYWORDS_FILE", ""),

		MaxAmount:     getEnvFloat("SMSLEDGER_MAX_AMOUNT", 10_000_000),
		RetentionDays: getEnvInt("SMSLEDGER_RETENTION_DAYS", 90),

		DedupMaxAge: getEnvDuration("SMSLEDGER_DEDUP_MAX_AGE", 90*24*time.Hour),
	}
}

// Validate checks that required fields are set for remote operation.
func (c *Config) Validate() error {
	if c.OwnerID == "" {
		return fmt.Errorf("owner ID is required (set SMSLEDGER_OWNER_ID or pass -owner)")
	}
	if c.ProjectID == "" {
		return fmt.Errorf("project ID is required (set SMSLEDGER_PROJECT_ID or pass -project)")
	}
	if c.MaxAmount <= 0 {
		return fmt.Errorf("max amount must be positive, got %f", c.MaxAmount)
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention days must be positive, got %d", c.RetentionDays)
	}
	return nil
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "smsledger.db"
	}
	return home + "/.smsledger/smsledger.db"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
