package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/structura/internal/config"
	"github.com/aristath/structura/internal/events"
	"github.com/aristath/structura/internal/modules/products"
	"github.com/aristath/structura/internal/reliability"
)

// InitializeServices creates the event bus, repositories and services
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	container.ProductRepo = products.NewRepository(container.DB.Conn(), log)
	container.ProductService = products.NewService(
		container.ProductRepo,
		container.EventManager,
		products.Options{
			Regions:        cfg.HolidayRegions,
			ValueDelayDays: cfg.ValueDelayDays,
		},
		log,
	)

	if !cfg.Backup.Enabled() {
		log.Info().Msg("No backup bucket configured, S3 backups disabled")
		return nil
	}

	client, err := reliability.NewS3Client(ctx, reliability.S3Config{
		Bucket:    cfg.Backup.Bucket,
		Region:    cfg.Backup.Region,
		Endpoint:  cfg.Backup.Endpoint,
		AccessKey: cfg.Backup.AccessKey,
		SecretKey: cfg.Backup.SecretKey,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}

	container.BackupService = reliability.NewBackupService(
		client,
		[]reliability.Snapshotter{container.DB},
		container.EventManager,
		cfg.DataDir,
		cfg.Backup.Prefix,
		cfg.Backup.Retention,
		log,
	)
	return nil
}
