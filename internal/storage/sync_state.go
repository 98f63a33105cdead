package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetSyncMarker returns the user's last processed message id, or "" before the first sync.
func (s *SQLiteStorage) GetSyncMarker(ctx context.Context, userID string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	var marker string
	err := s.db.QueryRowContext(ctx, `SELECT marker FROM sync_state WHERE user_id = ?`, userID).Scan(&marker)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get sync marker: %w", err)
	}
	return marker, nil
}

// SetSyncMarker stores the user's bookmark.
func (s *SQLiteStorage) SetSyncMarker(ctx context.Context, userID, marker string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (user_id, marker, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET marker = excluded.marker, updated_at = excluded.updated_at`,
		userID, marker, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to set sync marker: %w", err)
	}
	return nil
}
