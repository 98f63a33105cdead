package mailbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishhsuri/Orbit/internal/model"
)

func ids(emails []model.RawEmail) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		out = append(out, e.SourceID)
	}
	return out
}

func TestStaticFetchRecent(t *testing.T) {
	box := NewStatic(
		model.RawEmail{SourceID: "a"},
		model.RawEmail{SourceID: "b"},
		model.RawEmail{SourceID: "c"},
		model.RawEmail{SourceID: "d"},
	)

	tests := []struct {
		name   string
		marker string
		want   []string
		max    int
	}{
		{name: "no marker", want: []string{"a", "b", "c", "d"}},
		{name: "after marker", marker: "b", want: []string{"c", "d"}},
		{name: "marker is newest", marker: "d", want: []string{}},
		{name: "unknown marker starts over", marker: "zz", want: []string{"a", "b", "c", "d"}},
		{name: "bounded", max: 2, want: []string{"a", "b"}},
		{name: "bounded after marker", marker: "a", max: 1, want: []string{"b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := box.FetchRecent(context.Background(), tt.marker, tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestStaticAddAndCancel(t *testing.T) {
	box := NewStatic(model.RawEmail{SourceID: "a"})
	box.Add(model.RawEmail{SourceID: "b"})

	got, err := box.FetchRecent(context.Background(), "a", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids(got))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = box.FetchRecent(ctx, "", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "inbox.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"source_id": "m1", "subject": "Thanks for applying", "from_address": "jobs@acme.com", "snippet": "We received your application", "received_at": "2026-05-01T10:00:00Z"},
		{"source_id": "m2", "subject": "Interview invitation", "from_address": "talent@acme.com", "snippet": "Let's talk"}
	]`), 0o600))

	box, err := Load(path)
	require.NoError(t, err)
	got, err := box.FetchRecent(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Thanks for applying", got[0].Subject)
	assert.Equal(t, "jobs@acme.com", got[0].FromAddress)
	assert.Equal(t, 2026, got[0].ReceivedAt.Year())

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"subject": "no id"}]`), 0o600))
	_, err = Load(bad)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
