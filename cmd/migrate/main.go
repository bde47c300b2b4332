package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/glucon/glucon-api/infrastructure/config"
	"github.com/glucon/glucon-api/infrastructure/persistence/migrations"
)

func main() {
	mode := flag.String("mode", "up", "migration mode: up or version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	driver, dsn, dialect := "sqlite", cfg.SQLitePath, migrations.DialectSQLite
	if cfg.DatabaseDriver == config.DriverPostgres {
		driver, dsn, dialect = "postgres", cfg.DatabaseURL, migrations.DialectPostgres
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	switch *mode {
	case "up":
		if err := migrations.Up(ctx, db, dialect); err != nil {
			log.Fatalf("migration up failed: %v", err)
		}
		log.Println("Migration up completed successfully")
	case "version":
		version, err := migrations.Version(ctx, db, dialect)
		if err != nil {
			log.Fatalf("failed to read schema version: %v", err)
		}
		log.Printf("Schema version: %d", version)
	default:
		log.Fatalf("unknown mode: %s", *mode)
	}
}
