/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and the CLI.
 */
package di

import (
	"github.com/aristath/structura/internal/database"
	"github.com/aristath/structura/internal/events"
	"github.com/aristath/structura/internal/modules/products"
	"github.com/aristath/structura/internal/reliability"
	"github.com/aristath/structura/internal/scheduler"
)

// Container holds all dependencies for the application.
//
// Architecture:
//   - Database: products.db holding draft products
//   - Events: in-process bus plus the logging manager on top of it
//   - Services: draft editing (products) and S3 snapshots (reliability)
//   - Scheduler: cron jobs for WAL checkpoints and backups
type Container struct {
	DB *database.DB

	EventBus     *events.Bus
	EventManager *events.Manager

	ProductRepo    *products.Repository
	ProductService *products.Service

	// nil when no backup bucket is configured
	BackupService *reliability.BackupService

	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered background jobs for manual triggering
type JobInstances struct {
	Checkpoint scheduler.Job
	Backup     scheduler.Job // nil when backups are disabled
}

// Close releases the database. The scheduler must be stopped first.
func (c *Container) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
