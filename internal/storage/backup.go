package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	// DefaultBackupKeep is how many backups Prune retains.
	DefaultBackupKeep = 7
	backupPrefix      = "orbit_"
	backupSuffix      = ".db.gz"
	backupTimeLayout  = "20060102_150405"
)

// Backup errors.
var (
	ErrBackupExists    = errors.New("backup already exists")
	ErrBackupNotFile   = errors.New("in-memory databases cannot be backed up")
	ErrInvalidBackupTo = errors.New("invalid backup destination")
)

// BackupInfo describes one compressed backup file.
type BackupInfo struct {
	CreatedAt time.Time
	Name      string
	Path      string
	Size      int64
}

// BackupManager writes timestamped, gzip-compressed copies of the database
// and keeps only the most recent ones.
type BackupManager struct {
	db     *sql.DB
	now    func() time.Time
	dbPath string
	dir    string
	keep   int
}

// NewBackupManager creates a manager writing into dir (default: "backups"
// next to the database file).
func NewBackupManager(db *sql.DB, dbPath, dir string, keep int) (*BackupManager, error) {
	if dbPath == MemoryPath {
		return nil, ErrBackupNotFile
	}
	if dir == "" {
		dir = filepath.Join(filepath.Dir(dbPath), "backups")
	}
	if keep <= 0 {
		keep = DefaultBackupKeep
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &BackupManager{db: db, dbPath: dbPath, dir: absDir, keep: keep, now: time.Now}, nil
}

// Create snapshots the database with VACUUM INTO, compresses the snapshot and
// prunes old backups.
func (bm *BackupManager) Create(ctx context.Context) (*BackupInfo, error) {
	createdAt := bm.now().UTC()
	name := backupPrefix + createdAt.Format(backupTimeLayout) + backupSuffix
	dest := filepath.Join(bm.dir, name)
	if _, err := os.Stat(dest); err == nil {
		return nil, ErrBackupExists
	}

	snapshot := strings.TrimSuffix(dest, ".gz")
	if err := bm.snapshot(ctx, snapshot); err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(snapshot); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove uncompressed snapshot", "path", snapshot, "error", err)
		}
	}()

	if err := compressFile(snapshot, dest); err != nil {
		return nil, fmt.Errorf("failed to compress backup: %w", err)
	}

	stat, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	slog.Info("Created backup", "path", dest, "size", stat.Size())

	if _, err := bm.Prune(); err != nil {
		slog.Warn("failed to prune old backups", "error", err)
	}

	return &BackupInfo{Name: name, Path: dest, Size: stat.Size(), CreatedAt: createdAt}, nil
}

// List returns the backups in the directory, newest first.
func (bm *BackupManager) List() ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix)
		createdAt, err := time.Parse(backupTimeLayout, stamp)
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Name:      name,
			Path:      filepath.Join(bm.dir, name),
			Size:      info.Size(),
			CreatedAt: createdAt,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Prune deletes all but the newest keep backups and returns how many were removed.
func (bm *BackupManager) Prune() (int, error) {
	backups, err := bm.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for i := bm.keep; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", backups[i].Name, err)
		}
		slog.Debug("Removed old backup", "name", backups[i].Name)
		removed++
	}
	return removed, nil
}

func (bm *BackupManager) snapshot(ctx context.Context, destPath string) error {
	// VACUUM INTO takes a literal; refuse anything that could escape the quotes.
	if !filepath.IsAbs(destPath) || strings.ContainsAny(destPath, `'";`) {
		return fmt.Errorf("%w: %s", ErrInvalidBackupTo, destPath)
	}
	if _, err := bm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	// #nosec G201 - destPath is validated above
	if _, err := bm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", destPath)); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	return nil
}

func compressFile(src, dst string) (err error) {
	// #nosec G304 - src is a snapshot path built by the manager
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp) // #nosec G304
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	zw := gzip.NewWriter(out)
	zw.Name = filepath.Base(src)
	if _, err = io.Copy(zw, in); err != nil {
		_ = out.Close()
		return err
	}
	if err = zw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err = out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}
