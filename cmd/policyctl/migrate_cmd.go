package main

import (
	"fmt"
	"slices"

	"github.com/phrazzld/policyhub-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|reset|status|version]",
		Short:     "Run database migrations against the configured postgres database",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: postgres.MigrationCommands,
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			if !slices.Contains(postgres.MigrationCommands, command) {
				return withCode(exitUsage, fmt.Errorf("unknown migration command %q, expected one of %v",
					command, postgres.MigrationCommands))
			}

			cfg, log, err := root.loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			db, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := postgres.Migrate(db, command, log); err != nil {
				return withCode(exitDB, err)
			}
			return nil
		},
	}
}
