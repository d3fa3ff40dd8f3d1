package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Ingest    IngestConfig    `mapstructure:"ingest" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// AllowedOrigins is passed to the CORS middleware. Empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Storage drivers accepted in DatabaseConfig.Driver
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DatabaseConfig contains all database-related configuration settings.
// URL is only required when the postgres driver is selected.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver" validate:"required,oneof=postgres memory"`
	URL          string `mapstructure:"url" validate:"required_if=Driver postgres"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// IngestConfig controls file uploads and the background ingestion workers.
type IngestConfig struct {
	UploadDir      string `mapstructure:"upload_dir" validate:"required"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" validate:"gt=0"`
	WorkerCount    int    `mapstructure:"worker_count" validate:"gte=1,lte=64"`
	QueueSize      int    `mapstructure:"queue_size" validate:"gte=1"`
}

// SchedulerConfig controls the durable message scheduler.
type SchedulerConfig struct {
	// Timezone is the IANA location used to interpret scheduled date and time
	// components. "Local" uses the process location.
	Timezone string `mapstructure:"timezone" validate:"required"`

	// SweepInterval is how often overdue pending messages are expired.
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`

	// SweepGrace is how far past its fire instant a pending message must be
	// before the periodic sweep expires it.
	SweepGrace time.Duration `mapstructure:"sweep_grace" validate:"gte=0"`
}

// Location resolves the configured scheduler timezone.
func (c SchedulerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}
