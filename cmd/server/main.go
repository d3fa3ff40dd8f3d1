// Package main implements the policyhub API server, which imports policy
// files and delivers scheduled messages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/policyhub-api/internal/config"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/phrazzld/policyhub-api/internal/platform/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: ./config.yaml if present)")
	migrateCmd := flag.String("migrate", "", "run a migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	if err := run(*configPath, *migrateCmd); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath, migrateCmd string) error {
	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return err
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateCmd != "" {
		return runMigrations(cfg, migrateCmd, log)
	}

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// loadAppConfig loads configuration and logs the non-secret parts of it.
func loadAppConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"database_driver", cfg.Database.Driver,
		"scheduler_timezone", cfg.Scheduler.Timezone)

	return cfg, nil
}

// runMigrations applies a goose command against the configured database.
func runMigrations(cfg *config.Config, command string, log *slog.Logger) error {
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations require the %s driver, configured driver is %s",
			config.DriverPostgres, cfg.Database.Driver)
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	return postgres.Migrate(db, command, log)
}
