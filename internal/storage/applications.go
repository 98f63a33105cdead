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

const applicationColumns = `id, user_id, company_name, role_title, job_url, source, status,
	applied_date, status_updated_at, created_at, deleted_at`

// CreateApplication stores a new application and its "created" event.
func (s *SQLiteStorage) CreateApplication(ctx context.Context, app *model.TrackedApplication) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if app != nil && app.Status == "" {
		app.Status = model.StatusApplied
	}
	if err := validateApplication(app); err != nil {
		return err
	}
	if app.Status == model.StatusGhosted {
		return fmt.Errorf("%w: applications cannot be created as ghosted", common.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	created := *app
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.Source == "" {
		created.Source = model.SourceManual
	}
	if created.AppliedDate.IsZero() {
		created.AppliedDate = now
	}
	if created.StatusUpdatedAt.IsZero() {
		created.StatusUpdatedAt = now
	}
	created.CreatedAt = now

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tracked_applications (`+applicationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
			created.ID, created.UserID, created.CompanyName, created.RoleTitle, created.JobURL,
			created.Source, string(created.Status), created.AppliedDate.UTC(),
			created.StatusUpdatedAt.UTC(), created.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert application: %w", err)
		}
		return insertEvent(ctx, tx, model.ApplicationEvent{
			ApplicationID: created.ID,
			EventType:     model.EventCreated,
			Title:         "Application created",
			Description:   fmt.Sprintf("%s at %s (source: %s)", created.RoleTitle, created.CompanyName, created.Source),
			NewStatus:     created.Status,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return err
	}

	*app = created
	return nil
}

// GetApplication retrieves an application by id, including soft-deleted ones.
func (s *SQLiteStorage) GetApplication(ctx context.Context, id string) (*model.TrackedApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM tracked_applications WHERE id = ?`, id)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return app, nil
}

// ListApplications returns the user's live applications, oldest first.
func (s *SQLiteStorage) ListApplications(ctx context.Context, userID string) ([]model.TrackedApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	return s.queryApplications(ctx, `
		SELECT `+applicationColumns+` FROM tracked_applications
		WHERE user_id = ? AND deleted_at IS NULL
		ORDER BY created_at, id`, userID)
}

// UpdateApplicationStatus records a status change and its audit event.
// Ghosted can only be entered through MarkGhosted.
func (s *SQLiteStorage) UpdateApplicationStatus(ctx context.Context, id string, status model.ApplicationStatus, at time.Time, note string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if status == model.StatusGhosted {
		return fmt.Errorf("%w: ghosted is only set by ghost detection", common.ErrInvalidTransition)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var previous model.ApplicationStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM tracked_applications WHERE id = ? AND deleted_at IS NULL`, id,
		).Scan(&previous)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("application %s: %w", id, common.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read application status: %w", err)
		}
		if previous == status {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE tracked_applications SET status = ?, status_updated_at = ? WHERE id = ?`,
			string(status), at.UTC(), id,
		); err != nil {
			return fmt.Errorf("failed to update application status: %w", err)
		}

		return insertEvent(ctx, tx, model.ApplicationEvent{
			ApplicationID:  id,
			EventType:      model.EventStatusChanged,
			Title:          fmt.Sprintf("Status changed to %s", status),
			Description:    note,
			PreviousStatus: previous,
			NewStatus:      status,
			CreatedAt:      at.UTC(),
		})
	})
}

// SoftDeleteApplication hides an application from lists and ghost sweeps.
func (s *SQLiteStorage) SoftDeleteApplication(ctx context.Context, id string, at time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE tracked_applications SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return requireAffected(result, "application", id)
}

// ListApplicationEvents returns an application's audit log in append order.
// Event timestamps come from callers and may predate the created event.
func (s *SQLiteStorage) ListApplicationEvents(ctx context.Context, applicationID string) ([]model.ApplicationEvent, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, application_id, event_type, title, description,
			previous_status, new_status, days_elapsed, created_at
		FROM application_events
		WHERE application_id = ?
		ORDER BY rowid`, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []model.ApplicationEvent
	for rows.Next() {
		var e model.ApplicationEvent
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.EventType, &e.Title, &e.Description,
			&e.PreviousStatus, &e.NewStatus, &e.DaysElapsed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// RecordApplicationEvent appends a free-form audit event, such as a linked email.
func (s *SQLiteStorage) RecordApplicationEvent(ctx context.Context, event *model.ApplicationEvent) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("%w: event", ErrNilParameter)
	}
	if err := validateString(event.ApplicationID, "applicationID"); err != nil {
		return err
	}
	if err := validateString(event.EventType, "eventType"); err != nil {
		return err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertEvent(ctx, tx, *event)
	})
}

// GhostCandidates returns live applications in a ghostable status whose
// status timestamp is before cutoff.
func (s *SQLiteStorage) GhostCandidates(ctx context.Context, userID string, cutoff time.Time) ([]model.TrackedApplication, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	live, err := s.queryApplications(ctx, `
		SELECT `+applicationColumns+` FROM tracked_applications
		WHERE user_id = ? AND status IN (?, ?) AND deleted_at IS NULL
		ORDER BY status_updated_at, id`,
		userID, string(model.StatusApplied), string(model.StatusScreening))
	if err != nil {
		return nil, err
	}

	// Timestamps are compared as time.Time rather than as stored text.
	candidates := live[:0]
	for _, app := range live {
		if app.StatusUpdatedAt.Before(cutoff) {
			candidates = append(candidates, app)
		}
	}
	return candidates, nil
}

// MarkGhosted moves app to ghosted and appends the auto_ghosted event in one
// transaction. It reports false, changing nothing, when the stored row is no
// longer in app's ghostable status or has been deleted.
func (s *SQLiteStorage) MarkGhosted(ctx context.Context, app model.TrackedApplication, at time.Time, daysSince int) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if !app.Status.Ghostable() {
		return false, nil
	}

	var marked bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE tracked_applications SET status = ?, status_updated_at = ?
			WHERE id = ? AND status = ? AND deleted_at IS NULL`,
			string(model.StatusGhosted), at.UTC(), app.ID, string(app.Status),
		)
		if err != nil {
			return fmt.Errorf("failed to mark application ghosted: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %w", err)
		}
		if affected == 0 {
			return nil
		}
		marked = true

		return insertEvent(ctx, tx, model.ApplicationEvent{
			ApplicationID:  app.ID,
			EventType:      model.EventAutoGhosted,
			Title:          "Marked as ghosted",
			Description:    fmt.Sprintf("No response for %d days", daysSince),
			PreviousStatus: app.Status,
			NewStatus:      model.StatusGhosted,
			DaysElapsed:    daysSince,
			CreatedAt:      at.UTC(),
		})
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

func (s *SQLiteStorage) queryApplications(ctx context.Context, query string, args ...any) ([]model.TrackedApplication, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var apps []model.TrackedApplication
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, *app)
	}
	return apps, rows.Err()
}

func scanApplication(row rowScanner) (*model.TrackedApplication, error) {
	var (
		app       model.TrackedApplication
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&app.ID, &app.UserID, &app.CompanyName, &app.RoleTitle, &app.JobURL, &app.Source, &app.Status,
		&app.AppliedDate, &app.StatusUpdatedAt, &app.CreatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		app.DeletedAt = &t
	}
	return &app, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, e model.ApplicationEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO application_events (id, application_id, event_type, title, description,
			previous_status, new_status, days_elapsed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ApplicationID, e.EventType, e.Title, e.Description,
		string(e.PreviousStatus), string(e.NewStatus), e.DaysElapsed, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s event: %w", e.EventType, err)
	}
	return nil
}
