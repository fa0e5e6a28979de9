// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aristath/structura/internal/modules/calendar"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for databases, always absolute
	LogLevel       string
	Port           int
	DevMode        bool
	HolidayRegions calendar.RegionSet
	ValueDelayDays int // settlement delay when a draft has no value date
	Backup         *BackupConfig
}

// BackupConfig holds the S3 snapshot settings. Backups are disabled without a bucket.
type BackupConfig struct {
	Bucket             string
	Region             string
	Endpoint           string // S3-compatible endpoint, empty for AWS
	Prefix             string
	AccessKey          string
	SecretKey          string
	Schedule           string // cron spec
	Retention          int    // snapshots kept
	CheckpointSchedule string // cron spec for WAL checkpoints
}

// Enabled reports whether a bucket is configured.
func (b *BackupConfig) Enabled() bool {
	return b != nil && b.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("STRUCTURA_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	regions, err := calendar.ParseRegions(getEnv("HOLIDAY_REGIONS", "US,EU"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLIDAY_REGIONS: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		Port:           getEnvAsInt("GO_PORT", 8001),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HolidayRegions: regions,
		ValueDelayDays: getEnvAsInt("DEFAULT_VALUE_DELAY_DAYS", 14),
		Backup:         loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d", c.Port)
	}
	if len(c.HolidayRegions) == 0 {
		return fmt.Errorf("at least one holiday region is required")
	}
	for _, r := range c.HolidayRegions {
		if !r.Known() {
			return fmt.Errorf("unknown holiday region %q", r)
		}
	}
	if c.ValueDelayDays <= 0 {
		return fmt.Errorf("DEFAULT_VALUE_DELAY_DAYS must be positive, got %d", c.ValueDelayDays)
	}

	if c.Backup.Enabled() {
		if c.Backup.Retention < 1 {
			return fmt.Errorf("BACKUP_RETENTION must be at least 1, got %d", c.Backup.Retention)
		}
		if _, err := cron.ParseStandard(c.Backup.Schedule); err != nil {
			return fmt.Errorf("invalid BACKUP_SCHEDULE %q: %w", c.Backup.Schedule, err)
		}
	}
	if c.Backup != nil {
		if _, err := cron.ParseStandard(c.Backup.CheckpointSchedule); err != nil {
			return fmt.Errorf("invalid WAL_CHECKPOINT_SCHEDULE %q: %w", c.Backup.CheckpointSchedule, err)
		}
	}
	return nil
}

// DatabasePath returns the products database location
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "products.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Bucket:             getEnv("BACKUP_S3_BUCKET", ""),
		Region:             getEnv("BACKUP_S3_REGION", "us-east-1"),
		Endpoint:           getEnv("BACKUP_S3_ENDPOINT", ""),
		Prefix:             getEnv("BACKUP_S3_PREFIX", "structura/"),
		AccessKey:          getEnv("BACKUP_S3_ACCESS_KEY", ""),
		SecretKey:          getEnv("BACKUP_S3_SECRET_KEY", ""),
		Schedule:           getEnv("BACKUP_SCHEDULE", "0 3 * * *"),
		Retention:          getEnvAsInt("BACKUP_RETENTION", 14),
		CheckpointSchedule: getEnv("WAL_CHECKPOINT_SCHEDULE", "@hourly"),
	}
}
