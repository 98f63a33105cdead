package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/krishhsuri/Orbit/internal/model"
)

// SaveTrainingExample appends one labeled example.
func (s *SQLiteStorage) SaveTrainingExample(ctx context.Context, example *model.TrainingExample) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTrainingExample(example); err != nil {
		return err
	}

	if example.ID == "" {
		example.ID = uuid.NewString()
	}
	if example.CreatedAt.IsZero() {
		example.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO training_examples (id, user_id, subject, snippet, sender, label, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		example.ID, example.UserID, example.Subject, example.Snippet, example.Sender,
		string(example.Label), example.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save training example: %w", err)
	}
	return nil
}

// ListTrainingExamples returns the full labeled history in insertion order.
func (s *SQLiteStorage) ListTrainingExamples(ctx context.Context) ([]model.TrainingExample, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, subject, snippet, sender, label, created_at
		FROM training_examples
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list training examples: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var examples []model.TrainingExample
	for rows.Next() {
		var ex model.TrainingExample
		if err := rows.Scan(&ex.ID, &ex.UserID, &ex.Subject, &ex.Snippet, &ex.Sender, &ex.Label, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan training example: %w", err)
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}

// CountTrainingExamples returns the number of stored examples.
func (s *SQLiteStorage) CountTrainingExamples(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM training_examples`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count training examples: %w", err)
	}
	return count, nil
}
