// Package persistence selects the storage backend from configuration.
package persistence

import (
	"context"
	"database/sql"

	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/infrastructure/adapter/postgres"
	"github.com/glucon/glucon-api/infrastructure/adapter/sqlite"
	"github.com/glucon/glucon-api/infrastructure/config"
)

// Stores bundles the repositories sharing one database handle.
type Stores struct {
	DB      *sql.DB
	Users   outbound.UserRepository
	Recipes outbound.RecipeRepository
}

// Open connects to the configured database. SQLite is always migrated on
// open; PostgreSQL only when DB_AUTO_MIGRATE is set.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	if cfg.DatabaseDriver == config.DriverPostgres {
		db, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBAutoMigrate)
		if err != nil {
			return nil, err
		}
		return &Stores{
			DB:      db,
			Users:   postgres.NewUserRepositoryAdapter(db),
			Recipes: postgres.NewRecipeRepositoryAdapter(db),
		}, nil
	}

	db, err := sqlite.Open(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	return &Stores{
		DB:      db,
		Users:   sqlite.NewUserRepository(db),
		Recipes: sqlite.NewRecipeRepository(db),
	}, nil
}

func (s *Stores) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
