package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/structura/internal/modules/calendar"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STRUCTURA_DATA_DIR", dir)
	t.Setenv("HOLIDAY_REGIONS", "")
	t.Setenv("GO_PORT", "")
	t.Setenv("BACKUP_S3_BUCKET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, calendar.RegionSet{calendar.RegionUS, calendar.RegionEU}, cfg.HolidayRegions)
	assert.Equal(t, 14, cfg.ValueDelayDays)
	assert.False(t, cfg.Backup.Enabled())
	assert.Equal(t, filepath.Join(dir, "products.db"), cfg.DatabasePath())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STRUCTURA_DATA_DIR", t.TempDir())
	t.Setenv("GO_PORT", "9100")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("HOLIDAY_REGIONS", "gb, ch")
	t.Setenv("DEFAULT_VALUE_DELAY_DAYS", "10")
	t.Setenv("BACKUP_S3_BUCKET", "snapshots")
	t.Setenv("BACKUP_RETENTION", "3")
	t.Setenv("BACKUP_SCHEDULE", "30 2 * * *")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, calendar.RegionSet{calendar.RegionGB, calendar.RegionCH}, cfg.HolidayRegions)
	assert.Equal(t, 10, cfg.ValueDelayDays)
	assert.True(t, cfg.Backup.Enabled())
	assert.Equal(t, 3, cfg.Backup.Retention)
	assert.Equal(t, "30 2 * * *", cfg.Backup.Schedule)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown region", map[string]string{"HOLIDAY_REGIONS": "US,MARS"}},
		{"port out of range", map[string]string{"GO_PORT": "70000"}},
		{"negative delay", map[string]string{"DEFAULT_VALUE_DELAY_DAYS": "-1"}},
		{"bad backup schedule", map[string]string{"BACKUP_S3_BUCKET": "b", "BACKUP_SCHEDULE": "every day"}},
		{"zero retention", map[string]string{"BACKUP_S3_BUCKET": "b", "BACKUP_RETENTION": "0"}},
		{"bad checkpoint schedule", map[string]string{"WAL_CHECKPOINT_SCHEDULE": "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("STRUCTURA_DATA_DIR", t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "not-a-number")
	t.Setenv("CFG_TEST_BOOL", "yes-ish")

	assert.Equal(t, "fallback", getEnv("CFG_TEST_MISSING", "fallback"))
	assert.Equal(t, 5, getEnvAsInt("CFG_TEST_INT", 5))
	assert.True(t, getEnvAsBool("CFG_TEST_BOOL", true))
}
