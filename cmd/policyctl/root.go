package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/phrazzld/policyhub-api/internal/config"
	"github.com/phrazzld/policyhub-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

// serverURLEnv overrides the default --server value.
const serverURLEnv = config.EnvPrefix + "_SERVER_URL"

const defaultServerURL = "http://localhost:8080"

type rootOptions struct {
	configPath string
	serverURL  string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "policyctl",
		Short:         "Import policy files and manage scheduled messages",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serverURL := os.Getenv(serverURLEnv)
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file (default: ./config.yaml if present)")
	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", serverURL, "base URL of a running policyhub server (env "+serverURLEnv+")")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "timeout for server requests")

	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newScheduleCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newCancelCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	return cmd
}

// loadConfig reads configuration and builds a JSON logger writing to errOut,
// leaving stdout to command output.
func (o *rootOptions) loadConfig(errOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, nil, withCode(exitUsage, fmt.Errorf("failed to load configuration: %w", err))
	}

	log, err := logger.SetupWithWriter(cfg.Server, errOut)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	return cfg, log, nil
}
