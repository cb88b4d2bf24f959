package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/CatalogMatch/internal/infrastructure/database/postgres"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.PersistentFlags().StringVar(&migrationsPath, "migrations", "file://migrations", "migrations source URL")

	dbURL := func() (string, error) {
		cfg, err := opts.loadConfig()
		if err != nil {
			return "", err
		}
		return postgres.BuildDSN(cfg.Database), nil
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := dbURL()
			if err != nil {
				return err
			}
			if err := postgres.RunMigrations(url, migrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := dbURL()
			if err != nil {
				return err
			}
			if err := postgres.RollbackMigrations(url, migrationsPath, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			url, err := dbURL()
			if err != nil {
				return err
			}
			version, dirty, err := postgres.MigrationStatus(url, migrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version: %d  dirty: %v\n", version, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, status)
	return cmd
}
