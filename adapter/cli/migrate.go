package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply the pending schema migrations to the configured database.

The local SQLite database is migrated automatically when it is opened;
PostgreSQL deployments run this command before starting the service.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		if app.Migrate == nil {
			return fmt.Errorf("migrations not configured")
		}

		applied, err := app.Migrate(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to apply migrations: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(applied) == 0 {
			fmt.Fprintln(out, "Database is up to date.")
			return nil
		}
		fmt.Fprintf(out, "Applied %d migration(s): %s\n", len(applied), strings.Join(applied, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
