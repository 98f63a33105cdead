package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/service"
)

type recordingScheduler struct {
	err   error
	tasks []service.Task
}

func (s *recordingScheduler) Enqueue(_ context.Context, task service.Task) error {
	s.tasks = append(s.tasks, task)
	return s.err
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	record := stage(t, store, interviewEmail("a1"))
	sched := &recordingScheduler{}

	fb := NewFeedback(store, NewOrchestrator(), nil, sched)
	result, err := fb.Confirm(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, result.Updated)
	assert.Equal(t, "Acme", result.Application.CompanyName)
	assert.Equal(t, UnknownRole, result.Application.RoleTitle)
	assert.Equal(t, model.StatusInterview, result.Application.Status)
	assert.Equal(t, model.SourceGmailAuto, result.Application.Source)

	got, err := store.GetStagingRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StagingConfirmed, got.Status)

	examples, err := store.ListTrainingExamples(ctx)
	require.NoError(t, err)
	require.Len(t, examples, 1)
	assert.Equal(t, model.LabelPositive, examples[0].Label)
	assert.Equal(t, "Interview invitation", examples[0].Subject)
	assert.Equal(t, "talent@acme.com", examples[0].Sender)

	require.Len(t, sched.tasks, 1)
	assert.Equal(t, service.TaskRetrain, sched.tasks[0].Kind)
	assert.Equal(t, testUser, sched.tasks[0].UserID)

	_, err = fb.Confirm(ctx, record.ID)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestConfirmLinksExistingApplication(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	app := &model.TrackedApplication{UserID: testUser, CompanyName: "Acme", RoleTitle: "Backend Engineer"}
	require.NoError(t, store.CreateApplication(ctx, app))
	record := stage(t, store, interviewEmail("a1"))

	result, err := NewFeedback(store, NewOrchestrator(), nil, nil).Confirm(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, result.Updated)
	assert.Equal(t, app.ID, result.Application.ID)
	assert.Equal(t, model.StatusInterview, result.Application.Status)

	apps, err := store.ListApplications(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestReject(t *testing.T) {
	tests := []struct {
		name      string
		reason    model.FeedbackReason
		wantLabel model.Label
		trainable bool
	}{
		{name: "promotional", reason: model.ReasonPromotional, wantLabel: model.LabelNegative, trainable: true},
		{name: "not job related", reason: model.ReasonNotJobRelated, wantLabel: model.LabelNegative, trainable: true},
		{name: "duplicate", reason: model.ReasonDuplicate},
		{name: "wrong details", reason: model.ReasonWrongDetails},
		{name: "other", reason: model.ReasonOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := createTestStore(t)
			record := stage(t, store, linkedInEmail("l1"))
			sched := &recordingScheduler{}

			require.NoError(t, NewFeedback(store, NewOrchestrator(), nil, sched).Reject(ctx, record.ID, tt.reason))

			got, err := store.GetStagingRecord(ctx, record.ID)
			require.NoError(t, err)
			assert.Equal(t, model.StagingRejected, got.Status)

			examples, err := store.ListTrainingExamples(ctx)
			require.NoError(t, err)
			if !tt.trainable {
				assert.Empty(t, examples)
				assert.Empty(t, sched.tasks)
				return
			}
			require.Len(t, examples, 1)
			assert.Equal(t, tt.wantLabel, examples[0].Label)
			assert.Len(t, sched.tasks, 1)
		})
	}
}

func TestRejectWithConfirmedReason(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	record := stage(t, store, linkedInEmail("l1"))

	err := NewFeedback(store, NewOrchestrator(), nil, nil).Reject(ctx, record.ID, model.ReasonConfirmed)
	var userErr *common.UserError
	require.ErrorAs(t, err, &userErr)

	got, err := store.GetStagingRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StagingPending, got.Status)
}

func TestFeedbackSurvivesSchedulerFailure(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	record := stage(t, store, interviewEmail("a1"))
	sched := &recordingScheduler{err: errors.New("broker down")}

	_, err := NewFeedback(store, NewOrchestrator(), nil, sched).Confirm(ctx, record.ID)
	require.NoError(t, err)

	n, err := store.CountTrainingExamples(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFeedbackUnknownRecord(t *testing.T) {
	store := createTestStore(t)
	err := NewFeedback(store, NewOrchestrator(), nil, nil).Reject(context.Background(), "missing", model.ReasonOther)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
