//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/amrewind/rewind/internal/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	s, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestArtistCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	missing, err := s.GetArtists(ctx, "Blue Train")
	require.NoError(t, err)
	require.Nil(t, missing)

	entry := &ArtistEntry{
		Album:   "Blue Train",
		Artists: []string{"John Coltrane"},
		Source:  "lastfm",
	}
	require.NoError(t, s.SetArtists(ctx, entry))

	got, err := s.GetArtists(ctx, "Blue Train")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, []string{"John Coltrane"}, got.Artists)
	require.Equal(t, "lastfm", got.Source)
	require.False(t, got.Unknown())
}

func TestArtistCacheUnknownEntries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SetArtists(ctx, &ArtistEntry{Album: "Mystery Album", Source: "itunes"}))
	require.NoError(t, s.SetArtists(ctx, &ArtistEntry{Album: "Known", Artists: []string{"Artist"}, Source: "lastfm"}))

	got, err := s.GetArtists(ctx, "Mystery Album")
	require.NoError(t, err)
	require.True(t, got.Unknown())

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.Equal(t, int64(1), stats.Unknown)

	cleared, err := s.ClearUnknowns(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), cleared)

	got, err = s.GetArtists(ctx, "Mystery Album")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestReplaceArtist(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SetArtists(ctx, &ArtistEntry{Album: "A", Artists: []string{"Miss Spelled", "Other"}}))
	require.NoError(t, s.SetArtists(ctx, &ArtistEntry{Album: "B", Artists: []string{"Miss Spelled"}}))
	require.NoError(t, s.SetArtists(ctx, &ArtistEntry{Album: "C", Artists: []string{"Unrelated"}}))

	changed, err := s.ReplaceArtist(ctx, "Miss Spelled", "Properly Spelled")
	require.NoError(t, err)
	require.Equal(t, int64(2), changed)

	got, err := s.GetArtists(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, []string{"Properly Spelled", "Other"}, got.Artists)
}

func TestListEntriesOrderedWithLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, album := range []string{"Zebra", "Alpha", "Middle"} {
		require.NoError(t, s.SetArtists(ctx, &ArtistEntry{Album: album, Artists: []string{"X"}}))
	}

	entries, err := s.ListEntries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "Alpha", entries[0].Album)

	limited, err := s.ListEntries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestSubmissionJournal(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordSubmission(ctx, &SubmissionRecord{
			BatchID:     "batch-1",
			ChunkIndex:  i,
			ListenCount: 500,
			Status:      "ok",
			SubmittedAt: now,
		}))
	}

	records, err := s.ListSubmissions(ctx, "batch-1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, 0, records[0].ChunkIndex)
	require.Equal(t, 500, records[0].ListenCount)
	require.Equal(t, now, records[0].SubmittedAt)

	empty, err := s.ListSubmissions(ctx, "absent")
	require.NoError(t, err)
	require.Empty(t, empty)
}
