// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/kpapad/rangekeeper/internal/domain"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for databases (always absolute)
	SnapshotDir    string // Drop directory where the ingestor writes daily range files
	LogLevel       string
	Port           int
	DevMode        bool
	InitialCash    float64 // Seed cash balance when the portfolio is first created
	Rules          domain.TradingRules
	CycleSchedule  string // Cron expression for the daily decision cycle
	BackupSchedule string // Cron expression for the nightly backup
	Backup         *BackupConfig
}

// BackupConfig holds S3-compatible backup storage configuration.
// Nil endpoint means backups are disabled.
type BackupConfig struct {
	Endpoint        string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Retention       int // How many archives to keep remotely
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("RANGEKEEPER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:     absDataDir,
		SnapshotDir: getEnv("RANGEKEEPER_SNAPSHOT_DIR", filepath.Join(absDataDir, "snapshots")),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Port:        getEnvAsInt("RANGEKEEPER_PORT", 8010),
		DevMode:     getEnvAsBool("DEV_MODE", false),
		InitialCash: getEnvAsFloat("RANGEKEEPER_INITIAL_CASH", 10000),
		Rules: domain.TradingRules{
			MaxPositionPct: getEnvAsFloat("RANGEKEEPER_MAX_POSITION_PCT", -1),
			MinPositionPct: getEnvAsFloat("RANGEKEEPER_MIN_POSITION_PCT", -1),
		},
		// Weekdays at 09:45 and 02:30 UTC by default
		CycleSchedule:  getEnv("RANGEKEEPER_CYCLE_SCHEDULE", "45 9 * * MON-FRI"),
		BackupSchedule: getEnv("RANGEKEEPER_BACKUP_SCHEDULE", "30 2 * * *"),
		Backup:         loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required configuration. Trading rules are the one piece of
// configuration that must be explicit and coherent before any cycle runs.
func (c *Config) Validate() error {
	if c.Rules.MaxPositionPct < 0 || c.Rules.MinPositionPct < 0 {
		return fmt.Errorf("%w: RANGEKEEPER_MAX_POSITION_PCT and RANGEKEEPER_MIN_POSITION_PCT are required", domain.ErrInvalidRules)
	}
	if err := c.Rules.Validate(); err != nil {
		return err
	}
	if c.InitialCash <= 0 {
		return fmt.Errorf("RANGEKEEPER_INITIAL_CASH must be positive, got %.2f", c.InitialCash)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func loadBackupConfig() *BackupConfig {
	endpoint := getEnv("BACKUP_S3_ENDPOINT", "")
	if endpoint == "" {
		return nil
	}

	return &BackupConfig{
		Endpoint:        endpoint,
		Bucket:          getEnv("BACKUP_S3_BUCKET", "rangekeeper-backups"),
		AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
		Region:          getEnv("BACKUP_S3_REGION", "auto"),
		Retention:       getEnvAsInt("BACKUP_RETENTION", 14),
	}
}

// Helper functions for environment variables

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
