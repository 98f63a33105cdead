package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
)

const stagingColumns = `id, user_id, source_id, subject, snippet, sender, email_date,
	company, role, job_url, category, origin, confidence, status, created_at, updated_at`

// InsertStagingRecord stores a new record. A record whose (user, source id)
// already exists is left untouched and reported as inserted=false.
func (s *SQLiteStorage) InsertStagingRecord(ctx context.Context, record *model.StagingRecord) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if record != nil && record.Status == "" {
		record.Status = model.StagingPending
	}
	if err := validateStagingRecord(record); err != nil {
		return false, err
	}

	now := time.Now().UTC()
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}
	if record.EmailDate.IsZero() {
		record.EmailDate = now
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO staging_records (`+stagingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, source_id) DO NOTHING`,
		id, record.UserID, record.SourceID, record.Subject, record.Snippet, record.Sender,
		record.EmailDate.UTC(), record.Company, record.Role, record.JobURL,
		string(record.Category), string(record.Origin), record.Confidence, string(record.Status), now, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert staging record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	record.ID = id
	record.CreatedAt = now
	record.UpdatedAt = now
	return true, nil
}

// StagingExists reports whether a record for (userID, sourceID) exists.
func (s *SQLiteStorage) StagingExists(ctx context.Context, userID, sourceID string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM staging_records WHERE user_id = ? AND source_id = ?`,
		userID, sourceID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check staging record: %w", err)
	}
	return count > 0, nil
}

// GetStagingRecord retrieves a record by id.
func (s *SQLiteStorage) GetStagingRecord(ctx context.Context, id string) (*model.StagingRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+stagingColumns+` FROM staging_records WHERE id = ?`, id)
	record, err := scanStagingRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("staging record %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staging record: %w", err)
	}
	return record, nil
}

// ListStagingRecords returns the user's records oldest email first. An empty
// status returns every status.
func (s *SQLiteStorage) ListStagingRecords(ctx context.Context, userID string, status model.StagingStatus) ([]model.StagingRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	query := `SELECT ` + stagingColumns + ` FROM staging_records WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		if err := validateStagingStatus(status); err != nil {
			return nil, err
		}
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY email_date, created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list staging records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []model.StagingRecord
	for rows.Next() {
		record, err := scanStagingRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staging record: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// UpdateStagingStatus moves a record through its review lifecycle.
func (s *SQLiteStorage) UpdateStagingStatus(ctx context.Context, id string, status model.StagingStatus) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStagingStatus(status); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE staging_records SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update staging status: %w", err)
	}
	return requireAffected(result, "staging record", id)
}

// UpdateStagingEntities fills extracted fields. Empty values leave the stored value unchanged.
func (s *SQLiteStorage) UpdateStagingEntities(ctx context.Context, id string, entities model.Entities) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE staging_records SET
			company = COALESCE(NULLIF(?, ''), company),
			role = COALESCE(NULLIF(?, ''), role),
			job_url = COALESCE(NULLIF(?, ''), job_url),
			updated_at = ?
		WHERE id = ?`,
		entities.Company, entities.Role, entities.JobURL, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update staging entities: %w", err)
	}
	return requireAffected(result, "staging record", id)
}

func scanStagingRecord(row rowScanner) (*model.StagingRecord, error) {
	var r model.StagingRecord
	err := row.Scan(
		&r.ID, &r.UserID, &r.SourceID, &r.Subject, &r.Snippet, &r.Sender, &r.EmailDate,
		&r.Company, &r.Role, &r.JobURL, &r.Category, &r.Origin, &r.Confidence, &r.Status,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func requireAffected(result sql.Result, what, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", what, id, common.ErrNotFound)
	}
	return nil
}
