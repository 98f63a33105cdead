package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krishhsuri/Orbit/internal/cli"
	"github.com/krishhsuri/Orbit/internal/storage"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a compressed database backup",
		Long: `Snapshot the database into database.backup_dir as a gzip file and
keep only the newest database.backup_keep backups.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bm, closeDB, err := openBackups()
			if err != nil {
				return err
			}
			defer closeDB()

			info, err := bm.Create(cmd.Context())
			if err != nil {
				return err
			}
			writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Backup written: %s (%d bytes)", info.Path, info.Size)))
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bm, closeDB, err := openBackups()
			if err != nil {
				return err
			}
			defer closeDB()

			backups, err := bm.List()
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				writeln(cmd.OutOrStdout(), cli.FormatInfo("No backups yet."))
				return nil
			}
			for _, b := range backups {
				writeln(cmd.OutOrStdout(), fmt.Sprintf("%s  %8d  %s", b.CreatedAt.Format("2006-01-02 15:04:05"), b.Size, b.Name))
			}
			return nil
		},
	})
	return cmd
}

func openBackups() (*storage.BackupManager, func(), error) {
	store, err := storage.NewSQLiteStorage(settings.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	bm, err := store.NewBackupManager(settings.Database.BackupDir, settings.Database.BackupKeep)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return bm, func() { _ = store.Close() }, nil
}
