package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/phrazzld/policyhub-api/internal/config"
	"github.com/phrazzld/policyhub-api/internal/platform/memory"
	"github.com/phrazzld/policyhub-api/internal/platform/postgres"
	"github.com/phrazzld/policyhub-api/internal/store"
)

const pingTimeout = 5 * time.Second

// openPostgres opens and pings the configured database.
func openPostgres(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, withCode(exitUsage, fmt.Errorf("this command requires the %s driver, configured driver is %s",
			config.DriverPostgres, cfg.Database.Driver))
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, withCode(exitDB, fmt.Errorf("failed to open database connection: %w", err))
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, withCode(exitDB, fmt.Errorf("failed to ping database: %w", err))
	}
	return db, nil
}

// openStores returns entity stores for the configured driver and a function
// releasing them. Memory stores live only as long as the command.
func openStores(ctx context.Context, cfg *config.Config) (store.Stores, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		return memory.NewDB().Stores(), func() {}, nil
	}

	db, err := openPostgres(ctx, cfg)
	if err != nil {
		return store.Stores{}, nil, err
	}
	return postgres.NewStores(db), func() { _ = db.Close() }, nil
}
