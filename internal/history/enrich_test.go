package history

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amrewind/rewind/internal/metadata"
)

// stubResolver answers from a fixed table and records lookups.
type stubResolver struct {
	mu      sync.Mutex
	answers map[string][]string
	calls   []string
}

func (r *stubResolver) Resolve(_ context.Context, album string) (metadata.Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, album)
	return metadata.Resolution{Artists: r.answers[album], Source: "lastfm"}, nil
}

func TestEnrichPrefersContainerIndex(t *testing.T) {
	ix, err := LoadContainers(strings.NewReader(containerData))
	require.NoError(t, err)

	resolver := &stubResolver{answers: map[string][]string{
		"Giant Steps": {"John Coltrane"},
	}}
	e := &Enricher{Containers: ix, Resolver: resolver, Workers: 2}

	listens := []Listen{
		{Album: "Blue Train", Song: "Lazy Bird"},
		{Album: "Giant Steps", Song: "Naima"},
	}
	require.NoError(t, e.Enrich(context.Background(), listens))

	require.Equal(t, "John Coltrane", listens[0].Artist)
	require.Equal(t, "John Coltrane", listens[1].Artist)
	// Only the album the container export could not answer hits the
	// resolver.
	require.Equal(t, []string{"Giant Steps"}, resolver.calls)
}

func TestEnrichDeduplicatesAlbums(t *testing.T) {
	resolver := &stubResolver{answers: map[string][]string{
		"Blue Train": {"John Coltrane"},
	}}
	e := &Enricher{Containers: &ContainerIndex{}, Resolver: resolver, Workers: 4}

	listens := []Listen{
		{Album: "Blue Train", Song: "Lazy Bird"},
		{Album: "Blue Train", Song: "Moment's Notice"},
		{Album: "Blue Train", Song: "Locomotion"},
	}
	require.NoError(t, e.Enrich(context.Background(), listens))

	require.Len(t, resolver.calls, 1)
	for _, l := range listens {
		require.Equal(t, "John Coltrane", l.Artist)
	}
}

func TestEnrichUnknownAlbum(t *testing.T) {
	resolver := &stubResolver{answers: map[string][]string{}}
	e := &Enricher{Containers: &ContainerIndex{}, Resolver: resolver}

	listens := []Listen{{Album: "Obscure Bootleg", Song: "Track 1"}}
	require.NoError(t, e.Enrich(context.Background(), listens))
	require.Equal(t, "Unknown", listens[0].Artist)
}

func TestEnrichWithoutResolver(t *testing.T) {
	e := &Enricher{Containers: &ContainerIndex{}}
	err := e.Enrich(context.Background(), []Listen{{Album: "Blue Train"}})
	require.Error(t, err)
}

func TestPrintArtists(t *testing.T) {
	require.Equal(t, "Unknown", PrintArtists(nil))
	require.Equal(t, "Unknown", PrintArtists([]string{}))
	require.Equal(t, "John Coltrane", PrintArtists([]string{"John Coltrane"}))
	require.Equal(t, "A, B, C", PrintArtists([]string{"A", "B", "C"}))
	require.Equal(t, "A, B, C, ...", PrintArtists([]string{"A", "B", "C", "D"}))
}
