package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/phrazzld/policyhub-api/internal/config"
)

const (
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 5 * time.Second
)

// openDatabase opens the configured postgres pool without checking it.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}

// setupAppDatabase connects to postgres when it is the configured driver.
// It returns a nil *sql.DB for the memory driver.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.Database.Driver != config.DriverPostgres {
		logger.Info("using in-memory storage, data is lost on restart")
		return nil, nil
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns)
	return db, nil
}
