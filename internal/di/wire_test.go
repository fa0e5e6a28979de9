package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/structura/internal/config"
	"github.com/aristath/structura/internal/modules/calendar"
	"github.com/aristath/structura/internal/modules/products"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir:        t.TempDir(),
		Port:           8001,
		HolidayRegions: calendar.RegionSet{calendar.RegionUS, calendar.RegionEU},
		ValueDelayDays: 14,
	}
}

func TestWire(t *testing.T) {
	cfg := testConfig(t)

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.DB)
	assert.Equal(t, "products", container.DB.Name())
	assert.NotNil(t, container.EventBus)
	assert.NotNil(t, container.EventManager)
	assert.NotNil(t, container.ProductRepo)
	assert.NotNil(t, container.ProductService)
	assert.Nil(t, container.BackupService)

	assert.NotNil(t, jobs.Checkpoint)
	assert.Nil(t, jobs.Backup)

	statuses := container.Scheduler.Status()
	require.Len(t, statuses, 1)
	assert.Equal(t, "wal_checkpoint", statuses[0].Name)
	assert.Equal(t, "@hourly", statuses[0].Schedule)

	// The service is usable end to end against the migrated database
	draft, err := container.ProductService.Create(context.Background(), products.CreateRequest{Name: "Wired"})
	require.NoError(t, err)
	got, err := container.ProductService.Get(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wired", got.Name)

	require.NoError(t, container.Scheduler.RunNow("wal_checkpoint"))
}

func TestWire_WithBackups(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backup = &config.BackupConfig{
		Bucket:             "snapshots",
		Region:             "us-east-1",
		Endpoint:           "http://127.0.0.1:9000",
		Prefix:             "structura/",
		AccessKey:          "test-key",
		SecretKey:          "test-secret",
		Schedule:           "0 3 * * *",
		Retention:          7,
		CheckpointSchedule: "*/30 * * * *",
	}

	container, jobs, err := Wire(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.BackupService)
	assert.NotNil(t, jobs.Backup)

	statuses := container.Scheduler.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, "backup", statuses[0].Name)
	assert.Equal(t, "0 3 * * *", statuses[0].Schedule)
	assert.Equal(t, "*/30 * * * *", statuses[1].Schedule)
}

func TestWire_InvalidDataDir(t *testing.T) {
	cfg := testConfig(t)
	// A regular file where the data directory should be
	blocker := filepath.Join(cfg.DataDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.DataDir = blocker

	_, _, err := Wire(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}
