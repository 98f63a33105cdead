package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishhsuri/Orbit/internal/mailbox"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/storage"
)

// failingStore fails inserts for selected source ids.
type failingStore struct {
	*storage.SQLiteStorage
	failFor map[string]bool
}

func (s *failingStore) InsertStagingRecord(ctx context.Context, record *model.StagingRecord) (bool, error) {
	if s.failFor[record.SourceID] {
		return false, errors.New("disk full")
	}
	return s.SQLiteStorage.InsertStagingRecord(ctx, record)
}

func newTestSyncer(box *mailbox.Static, store SyncStore, opts SyncOptions) *Syncer {
	if opts.UserID == "" {
		opts.UserID = testUser
	}
	opts.UserEmail = testUserEmail
	return NewSyncer(box, store, NewOrchestrator(), opts)
}

func TestSync(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	box := mailbox.NewStatic(linkedInEmail("e1"), promoEmail("e2"), interviewEmail("e3"))

	var progress []int
	syncer := newTestSyncer(box, store, SyncOptions{Progress: func(done, _ int) { progress = append(progress, done) }})

	report, err := syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 2, report.Staged)
	assert.Equal(t, 1, report.Filtered)
	assert.Zero(t, report.Failed)
	assert.Equal(t, "e3", report.Marker)
	assert.Equal(t, []int{1, 2, 3}, progress)

	marker, err := store.GetSyncMarker(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "e3", marker)

	pending, err := store.ListStagingRecords(ctx, testUser, model.StagingPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "e1", pending[0].SourceID)
	assert.Equal(t, model.CategoryApplicationReceived, pending[0].Category)
	assert.Equal(t, "e3", pending[1].SourceID)
	assert.Equal(t, model.CategoryInterviewInvite, pending[1].Category)
	assert.Equal(t, "Acme", pending[1].Company)

	// Nothing new after the bookmark.
	report, err = syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Fetched)
	assert.Equal(t, "e3", report.Marker)
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)
	box := mailbox.NewStatic(linkedInEmail("e1"), promoEmail("e2"), interviewEmail("e3"))
	syncer := newTestSyncer(box, store, SyncOptions{})

	_, err := syncer.Sync(ctx)
	require.NoError(t, err)

	// Rewind the bookmark so every message is seen again.
	require.NoError(t, store.SetSyncMarker(ctx, testUser, "unknown"))
	report, err := syncer.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Duplicates)
	assert.Equal(t, 1, report.Filtered)
	assert.Zero(t, report.Staged)

	all, err := store.ListStagingRecords(ctx, testUser, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSyncFailureHoldsBookmark(t *testing.T) {
	ctx := context.Background()
	base := createTestStore(t)
	store := &failingStore{SQLiteStorage: base, failFor: map[string]bool{"e2": true}}

	second := interviewEmail("e2")
	second.Subject = "Interview invitation for round two"
	box := mailbox.NewStatic(linkedInEmail("e1"), second, interviewEmail("e3"))

	report, err := newTestSyncer(box, store, SyncOptions{}).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, report.Staged, "later messages are still staged")
	assert.Equal(t, "e1", report.Marker)

	marker, err := base.GetSyncMarker(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "e1", marker)

	// The retry sees e2 again; e3 is already staged.
	store.failFor = nil
	report, err = newTestSyncer(box, store, SyncOptions{}).Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Staged)
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, "e3", report.Marker)
}

func TestSyncCancellationKeepsProgress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := createTestStore(t)
	box := mailbox.NewStatic(linkedInEmail("e1"), interviewEmail("e2"), interviewEmail("e3"))
	syncer := newTestSyncer(box, store, SyncOptions{Progress: func(done, _ int) {
		if done == 1 {
			cancel()
		}
	}})

	report, err := syncer.Sync(ctx)
	require.NoError(t, err)
	assert.True(t, report.Cancelled)
	assert.Equal(t, 1, report.Staged)
	assert.Equal(t, "e1", report.Marker)

	marker, err := store.GetSyncMarker(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, "e1", marker, "bookmark is saved despite cancellation")
}

func TestSyncEnrich(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	vague := model.RawEmail{
		SourceID:    "e1",
		Subject:     "Next steps",
		Snippet:     "Thanks for your time so far. Let us know your availability for the role.",
		FromAddress: "someone@gmail.com",
		ReceivedAt:  baseTime,
	}
	d := &fakeDecider{extraction: model.Extraction{Company: "Globex", Role: "SRE"}, extractOK: true}
	syncer := NewSyncer(mailbox.NewStatic(vague), store, NewOrchestrator(WithDecider(d)),
		SyncOptions{UserID: testUser, Enrich: true})

	report, err := syncer.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Staged)
	assert.Equal(t, []string{"e1"}, d.extractKeys)

	pending, err := store.ListStagingRecords(ctx, testUser, model.StagingPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Globex", pending[0].Company)
	assert.Equal(t, "SRE", pending[0].Role)
	assert.Equal(t, model.OriginLLM, pending[0].Origin)
	assert.GreaterOrEqual(t, pending[0].Confidence, 0.8)
}

func TestSyncRequiresUser(t *testing.T) {
	store := createTestStore(t)
	syncer := NewSyncer(mailbox.NewStatic(), store, NewOrchestrator(), SyncOptions{})
	_, err := syncer.Sync(context.Background())
	assert.Error(t, err)
}
