package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/glucon/glucon-api/infrastructure/persistence/migrations"
)

// Open connects to PostgreSQL and optionally applies the embedded schema.
func Open(ctx context.Context, databaseURL string, migrate bool) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if migrate {
		if err := migrations.Up(ctx, db, migrations.DialectPostgres); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
