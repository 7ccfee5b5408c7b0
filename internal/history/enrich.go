package history

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/amrewind/rewind/internal/metadata"
	"github.com/amrewind/rewind/internal/throttle"
)

// ArtistResolver resolves artists for an album over the network.
// *metadata.Resolver satisfies it.
type ArtistResolver interface {
	Resolve(ctx context.Context, album string) (metadata.Resolution, error)
}

// Enricher fills in the Artist field of listens. The container export is
// consulted first; albums it cannot answer are resolved concurrently
// through the resolver, one lookup per distinct album.
type Enricher struct {
	Containers *ContainerIndex
	Resolver   ArtistResolver
	Logger     throttle.Logger

	// Workers bounds concurrent resolver lookups. Values below 1 mean a
	// single worker.
	Workers int
}

// Enrich resolves artists for every listen in place.
func (e *Enricher) Enrich(ctx context.Context, listens []Listen) error {
	if e == nil {
		return errors.New("enricher is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	byAlbum := make(map[string][]string)
	var unresolved []string
	for _, l := range listens {
		if _, seen := byAlbum[l.Album]; seen {
			continue
		}
		if artists := e.Containers.Lookup(l.Album); artists != nil {
			byAlbum[l.Album] = artists
			continue
		}
		byAlbum[l.Album] = nil
		unresolved = append(unresolved, l.Album)
	}

	if len(unresolved) > 0 {
		if e.Resolver == nil {
			return errors.New("enricher has no resolver for unmatched albums")
		}
		if err := e.resolveAll(ctx, byAlbum, unresolved); err != nil {
			return err
		}
	}

	for i := range listens {
		listens[i].Artist = PrintArtists(byAlbum[listens[i].Album])
	}
	return nil
}

func (e *Enricher) resolveAll(ctx context.Context, byAlbum map[string][]string, albums []string) error {
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, album := range albums {
		g.Go(func() error {
			res, err := e.Resolver.Resolve(ctx, album)
			if err != nil {
				return err
			}
			if res.Unknown() && e.Logger != nil {
				e.Logger.Debugf("history: no artist found for %q", album)
			}
			mu.Lock()
			byAlbum[album] = res.Artists
			mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

// PrintArtists renders an artist list for display: empty lists become
// "Unknown", and lists longer than three are truncated with an ellipsis.
func PrintArtists(artists []string) string {
	switch {
	case len(artists) == 0:
		return "Unknown"
	case len(artists) > 3:
		return strings.Join(artists[:3], ", ") + ", ..."
	default:
		return strings.Join(artists, ", ")
	}
}
