package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on start; run this explicitly after an
upgrade to see the result.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbPath := settings.Database.Path
			slog.Info("Starting database migration", "database", dbPath)

			store, err := storage.NewSQLiteStorage(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			writeln(cmd.OutOrStdout(), cli.FormatSuccess("Database migrations completed: "+dbPath))
			return nil
		},
	}
}
