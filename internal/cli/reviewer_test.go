package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/pipeline"
)

type rejection struct {
	id     string
	reason model.FeedbackReason
}

type fakeFeedback struct {
	confirmErr error
	confirmed  []string
	rejected   []rejection
}

func (f *fakeFeedback) Confirm(_ context.Context, id string) (pipeline.ConfirmResult, error) {
	if f.confirmErr != nil {
		return pipeline.ConfirmResult{}, f.confirmErr
	}
	f.confirmed = append(f.confirmed, id)
	return pipeline.ConfirmResult{Application: model.TrackedApplication{CompanyName: "Acme", Status: model.StatusApplied}}, nil
}

func (f *fakeFeedback) Reject(_ context.Context, id string, reason model.FeedbackReason) error {
	f.rejected = append(f.rejected, rejection{id: id, reason: reason})
	return nil
}

func pendingRecords(ids ...string) []model.StagingRecord {
	records := make([]model.StagingRecord, len(ids))
	for i, id := range ids {
		records[i] = model.StagingRecord{
			ID:         id,
			Subject:    "Application received",
			Sender:     "jobs@acme.com",
			Company:    "Acme",
			Category:   model.CategoryApplicationReceived,
			Origin:     model.OriginLocal,
			Confidence: 0.9,
			EmailDate:  time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
			Status:     model.StagingPending,
		}
	}
	return records
}

func TestReviewerReview(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      ReviewStats
		confirmed []string
		rejected  []rejection
	}{
		{
			name:      "confirm reject skip",
			input:     "c\nr\n2\ns\n",
			want:      ReviewStats{Confirmed: 1, Rejected: 1, Skipped: 1},
			confirmed: []string{"a"},
			rejected:  []rejection{{id: "b", reason: model.ReasonPromotional}},
		},
		{
			name:      "invalid answers are asked again",
			input:     "x\nC\n9\nr\n4\n",
			want:      ReviewStats{Confirmed: 1, Rejected: 1},
			confirmed: []string{"a"},
			rejected:  []rejection{{id: "b", reason: model.ReasonWrongDetails}},
		},
		{
			name:  "quit stops early",
			input: "s\nq\n",
			want:  ReviewStats{Skipped: 1},
		},
		{
			name:      "end of input stops early",
			input:     "c\n",
			want:      ReviewStats{Confirmed: 1},
			confirmed: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeFeedback{}
			var out bytes.Buffer
			rv := NewReviewer(strings.NewReader(tt.input), &out, fb)

			stats, err := rv.Review(context.Background(), pendingRecords("a", "b", "c"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, stats)
			assert.Equal(t, tt.confirmed, fb.confirmed)
			assert.Equal(t, tt.rejected, fb.rejected)
			assert.Contains(t, out.String(), "Record 1 of 3")
		})
	}
}

func TestReviewerRetriesInvalidReason(t *testing.T) {
	fb := &fakeFeedback{}
	var out bytes.Buffer
	rv := NewReviewer(strings.NewReader("r\n0\n7\n1\nq\n"), &out, fb)

	stats, err := rv.Review(context.Background(), pendingRecords("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, ReviewStats{Rejected: 1}, stats)
	assert.Equal(t, []rejection{{id: "a", reason: model.ReasonNotJobRelated}}, fb.rejected)
	assert.Contains(t, out.String(), "Please enter one of")
}

func TestReviewerConfirmError(t *testing.T) {
	fb := &fakeFeedback{confirmErr: errors.New("database is locked")}
	rv := NewReviewer(strings.NewReader("c\n"), &bytes.Buffer{}, fb)

	_, err := rv.Review(context.Background(), pendingRecords("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to confirm a")
}

func TestReviewerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rv := NewReviewer(strings.NewReader("c\n"), &bytes.Buffer{}, &fakeFeedback{})

	_, err := rv.Review(ctx, pendingRecords("a"))
	assert.ErrorIs(t, err, ErrInputCancelled)
}
