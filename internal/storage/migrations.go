package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS staging_records (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					source_id TEXT NOT NULL,
					subject TEXT NOT NULL DEFAULT '',
					snippet TEXT NOT NULL DEFAULT '',
					sender TEXT NOT NULL DEFAULT '',
					email_date DATETIME NOT NULL,
					company TEXT NOT NULL DEFAULT '',
					role TEXT NOT NULL DEFAULT '',
					job_url TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL,
					origin TEXT NOT NULL,
					confidence REAL NOT NULL DEFAULT 0,
					status TEXT NOT NULL DEFAULT 'pending',
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL,
					UNIQUE (user_id, source_id)
				)`,

				`CREATE TABLE IF NOT EXISTS tracked_applications (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL,
					company_name TEXT NOT NULL,
					role_title TEXT NOT NULL,
					job_url TEXT NOT NULL DEFAULT '',
					source TEXT NOT NULL DEFAULT 'manual',
					status TEXT NOT NULL,
					applied_date DATETIME NOT NULL,
					status_updated_at DATETIME NOT NULL,
					created_at DATETIME NOT NULL,
					deleted_at DATETIME
				)`,

				`CREATE TABLE IF NOT EXISTS application_events (
					id TEXT PRIMARY KEY,
					application_id TEXT NOT NULL,
					event_type TEXT NOT NULL,
					title TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					previous_status TEXT NOT NULL DEFAULT '',
					new_status TEXT NOT NULL DEFAULT '',
					days_elapsed INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					FOREIGN KEY (application_id) REFERENCES tracked_applications(id)
				)`,

				`CREATE TABLE IF NOT EXISTS training_examples (
					id TEXT PRIMARY KEY,
					user_id TEXT NOT NULL DEFAULT '',
					subject TEXT NOT NULL DEFAULT '',
					snippet TEXT NOT NULL DEFAULT '',
					sender TEXT NOT NULL DEFAULT '',
					label TEXT NOT NULL CHECK (label IN ('positive', 'negative')),
					created_at DATETIME NOT NULL
				)`,
			)
		},
	},
	{
		Version:     2,
		Description: "Add per-user sync bookmarks",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE TABLE IF NOT EXISTS sync_state (
					user_id TEXT PRIMARY KEY,
					marker TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
			)
		},
	},
	{
		Version:     3,
		Description: "Add indexes for review queues and ghost sweeps",
		Up: func(tx *sql.Tx) error {
			return execAll(tx,
				`CREATE INDEX IF NOT EXISTS idx_staging_user_status ON staging_records(user_id, status)`,
				`CREATE INDEX IF NOT EXISTS idx_applications_user_status ON tracked_applications(user_id, status)`,
				`CREATE INDEX IF NOT EXISTS idx_events_application ON application_events(application_id)`,
			)
		},
	},
}

func execAll(tx *sql.Tx, queries ...string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, version)
	}
	return nil
}

// SchemaVersion returns the applied schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
