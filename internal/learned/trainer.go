package learned

import (
	"context"
	"fmt"

	"github.com/krishhsuri/Orbit/internal/metrics"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

// Trainer reloads the full historical label set and retrains a Filter.
type Trainer struct {
	store  service.TrainingStore
	filter *Filter
}

// NewTrainer creates a trainer for filter backed by store.
func NewTrainer(store service.TrainingStore, filter *Filter) *Trainer {
	return &Trainer{store: store, filter: filter}
}

// RefreshResult reports what a refresh did.
type RefreshResult struct {
	Examples int
	Trained  bool
}

// Refresh loads every training example and retrains. Having too few examples
// is not an error; Trained is false.
func (t *Trainer) Refresh(ctx context.Context) (RefreshResult, error) {
	examples, err := t.store.ListTrainingExamples(ctx)
	if err != nil {
		metrics.IncrementRetrain("failed")
		return RefreshResult{}, fmt.Errorf("failed to load training examples: %w", err)
	}

	texts := make([]string, len(examples))
	labels := make([]model.Label, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text()
		labels[i] = ex.Label
	}

	if err := ctx.Err(); err != nil {
		return RefreshResult{Examples: len(examples)}, err
	}
	trained := t.filter.Train(texts, labels)
	if trained {
		metrics.IncrementRetrain("trained")
	} else {
		metrics.IncrementRetrain("skipped")
	}
	return RefreshResult{Examples: len(examples), Trained: trained}, nil
}
