// Package config loads bootstrap configuration: the database path, backup
// destination, busy-timeout/retry tuning, and log level. This is distinct
// from the DB-resident settings/holidays documents (internal/settingsdoc),
// which are business configuration read and written at runtime.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the engine's bootstrap configuration.
type Config struct {
	DBPath      string
	BackupDir   string
	RunMigrations bool

	BusyTimeout         time.Duration
	MaxOpenConns        int
	LeakWarnConnections int

	BackupSchedule string
	ReconcileCron  string

	ThrottleRPS   float64
	ThrottleBurst int

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables, attempting a local
// .env file first.
func Load(envFile string) (*Config, error) {
	loadDotenv(envFile)

	cfg := &Config{
		DBPath:        getEnv("DB_PATH", "replenish.db"),
		BackupDir:     getEnv("BACKUP_DIR", "backups"),
		RunMigrations: getEnvAsBool("RUN_MIGRATIONS", true),

		BusyTimeout:         getEnvAsDuration("DB_BUSY_TIMEOUT", 30*time.Second),
		MaxOpenConns:        getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
		LeakWarnConnections: getEnvAsInt("DB_LEAK_WARN_CONNECTIONS", 20),

		BackupSchedule: getEnv("BACKUP_SCHEDULE", "0 2 * * *"),
		ReconcileCron:  getEnv("RECONCILE_SCHEDULE", "30 23 * * *"),

		ThrottleRPS:   getEnvAsFloat("THROTTLE_RPS", 50),
		ThrottleBurst: getEnvAsInt("THROTTLE_BURST", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required configuration is present and sane.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.BusyTimeout <= 0 {
		return fmt.Errorf("DB_BUSY_TIMEOUT must be positive")
	}
	if c.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive")
	}
	return nil
}

// Helper functions for reading environment variables.

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
