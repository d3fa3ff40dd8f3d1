package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
// For example, server.port is read from POLICYHUB_SERVER_PORT.
const EnvPrefix = "POLICYHUB"

// dotenvFiles are loaded, when present, before environment variables are read.
// Variables that are already set in the process environment are not overridden.
var dotenvFiles = []string{".env", ".env.local"}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile behaves like Load but reads the given YAML file instead of searching
// for config.yaml in the working directory. An empty path falls back to the search.
func LoadFile(path string) (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys without a default are invisible to Unmarshal unless bound explicitly.
	for _, key := range []string{"database.url", "server.allowed_origins"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("ingest.upload_dir", "uploads")
	v.SetDefault("ingest.max_upload_bytes", 10<<20)
	v.SetDefault("ingest.worker_count", 2)
	v.SetDefault("ingest.queue_size", 16)

	v.SetDefault("scheduler.timezone", "Local")
	v.SetDefault("scheduler.sweep_interval", "5m")
	v.SetDefault("scheduler.sweep_grace", "1m")
}

func loadDotenv() error {
	var existing []string
	for _, name := range dotenvFiles {
		if _, err := os.Stat(name); err == nil {
			existing = append(existing, name)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
