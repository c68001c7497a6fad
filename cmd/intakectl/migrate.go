package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BennettSmith/insurance-intake-api/internal/adapters/postgres"
	"github.com/BennettSmith/insurance-intake-api/internal/platform/config"
)

// databaseURL reads DATABASE_URL from the environment or the server section
// of the config file.
func databaseURL() (string, error) {
	cfg, err := config.LoadServerConfigFromEnv()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return "", errors.New("DATABASE_URL is required")
	}
	return cfg.DatabaseURL, nil
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Manage the database schema.

Migrations are embedded in the binary and applied to DATABASE_URL.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, err := databaseURL()
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(dbURL); err != nil {
				return err
			}
			st, err := postgres.MigrationVersion(dbURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated to version: %d\n", st.Version)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default 1)",
		Long: `Roll back migrations.

Example:
  intakectl migrate down      # Roll back 1 migration
  intakectl migrate down 2    # Roll back 2 migrations`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}
			dbURL, err := databaseURL()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolling back %d migration(s)...\n", steps)
			if err := postgres.MigrateDown(dbURL, steps); err != nil {
				return err
			}
			st, err := postgres.MigrationVersion(dbURL)
			if err != nil {
				return err
			}
			if !st.Applied {
				fmt.Fprintln(cmd.OutOrStdout(), "All migrations rolled back")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back to version: %d\n", st.Version)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current migration version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbURL, err := databaseURL()
			if err != nil {
				return err
			}
			st, err := postgres.MigrationVersion(dbURL)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !st.Applied {
				fmt.Fprintln(out, "No migrations have been applied yet")
				return nil
			}
			fmt.Fprintf(out, "Current version: %d\n", st.Version)
			if st.Dirty {
				fmt.Fprintln(out, "Warning: database is in a dirty state")
			}
			return nil
		},
	})
	return cmd
}
