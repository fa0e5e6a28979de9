package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/structura/internal/database"
)

// BackupJob runs a backup on the scheduler
type BackupJob struct {
	service *BackupService
	timeout time.Duration
	log     zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service *BackupService, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		timeout: 10 * time.Minute,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "backup"
}

// Run executes the backup job
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.service.CreateAndUpload(ctx)
	return err
}

// CheckpointJob checks database health and truncates the WAL so it does not grow unbounded
type CheckpointJob struct {
	databases map[string]*database.DB
	log       zerolog.Logger
}

// NewCheckpointJob creates a new WAL checkpoint job
func NewCheckpointJob(databases map[string]*database.DB, log zerolog.Logger) *CheckpointJob {
	return &CheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *CheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes the checkpoint job. A failing health check is an error; a
// failed checkpoint is only logged and retried on the next run.
func (j *CheckpointJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	startTime := time.Now()
	for name, db := range j.databases {
		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", name).Msg("Database health check failed")
			return fmt.Errorf("health check of %s failed: %w", name, err)
		}

		if err := db.WALCheckpoint(ctx, "TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", name).Msg("WAL checkpoint failed")
			continue
		}

		if stats, err := db.GetStats(); err == nil {
			j.log.Debug().
				Str("database", name).
				Int64("wal_size_bytes", stats.WALSizeBytes).
				Msg("WAL checkpoint completed")
		}
	}

	j.log.Info().
		Int("databases", len(j.databases)).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Database maintenance completed")
	return nil
}
