package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/structura/internal/config"
	"github.com/aristath/structura/internal/database"
)

// InitializeDatabases opens products.db and applies its schema
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileStandard,
		Name:    "products",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize products database: %w", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate products database: %w", err)
	}
	container.DB = db

	log.Info().Str("path", db.Path()).Msg("Products database initialized")
	return container, nil
}
