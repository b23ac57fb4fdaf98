package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func (a *App) installMigrateCmd() {
	migrateCmd := &cobra.Command{
		Use:   "migrate [path-to-migration-scripts]",
		Short: "Create or update the PostgreSQL warehouse schema",
		Long: `Run migration scripts to create or update the PostgreSQL warehouse schema.
If no path is provided, the migrations shipped with the binary are used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cmd.SilenceUsage = false

			var dir string
			if len(args) == 1 {
				dir = args[0]
				fileInfo, err := os.Stat(dir)
				if err != nil {
					return fmt.Errorf("the provided path to migration scripts is not valid: %v", err)
				}
				if !fileInfo.IsDir() {
					return fmt.Errorf("the provided path to migration scripts should be a directory, not a file")
				}
			}

			a.cmd.SilenceUsage = true

			slog.Info("Running migrate command", "dir", dir)
			if err := a.migrate(a.config.Warehouse.Postgres, dir); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "🟢 Warehouse schema is up to date.")
			return nil
		},
	}
	a.cmd.AddCommand(migrateCmd)
}
