package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/structura/internal/config"
	"github.com/aristath/structura/internal/database"
	"github.com/aristath/structura/internal/reliability"
	"github.com/aristath/structura/internal/scheduler"
)

const defaultCheckpointSchedule = "@hourly"

// RegisterJobs creates the scheduler and registers maintenance jobs on it.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	container.Scheduler = scheduler.New(log)
	instances := &JobInstances{}

	checkpointSchedule := defaultCheckpointSchedule
	if cfg.Backup != nil && cfg.Backup.CheckpointSchedule != "" {
		checkpointSchedule = cfg.Backup.CheckpointSchedule
	}

	checkpoint := reliability.NewCheckpointJob(map[string]*database.DB{
		container.DB.Name(): container.DB,
	}, log)
	if err := container.Scheduler.AddJob(checkpointSchedule, checkpoint); err != nil {
		return nil, fmt.Errorf("failed to register checkpoint job: %w", err)
	}
	instances.Checkpoint = checkpoint

	if container.BackupService != nil {
		backup := reliability.NewBackupJob(container.BackupService, log)
		if err := container.Scheduler.AddJob(cfg.Backup.Schedule, backup); err != nil {
			return nil, fmt.Errorf("failed to register backup job: %w", err)
		}
		instances.Backup = backup
	}

	log.Info().Int("jobs", len(container.Scheduler.Status())).Msg("Background jobs registered")
	return instances, nil
}
