package metadata

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/amrewind/rewind/internal/store"
	"github.com/amrewind/rewind/internal/throttle"
)

// noiseMarkers are release qualifiers that confuse album search; they
// are stripped from the query term before lookup.
var noiseMarkers = regexp.MustCompile(strings.Join([]string{
	regexp.QuoteMeta("(Deluxe)"),
	regexp.QuoteMeta("(Extended)"),
	regexp.QuoteMeta("(Live)"),
	regexp.QuoteMeta("[Karaoke Edition]"),
	regexp.QuoteMeta("(Karaoke Edition)"),
	regexp.QuoteMeta("- Single"),
}, "|"))

// ArtistCache persists album resolutions across runs.
type ArtistCache interface {
	GetArtists(ctx context.Context, album string) (*store.ArtistEntry, error)
	SetArtists(ctx context.Context, entry *store.ArtistEntry) error
}

// Resolution is the outcome of resolving one album.
type Resolution struct {
	Artists   []string
	Source    string
	FromCache bool
}

// Unknown reports whether no artist could be determined.
func (r Resolution) Unknown() bool {
	return len(r.Artists) == 0
}

// ResolverStats counts cache behavior over a run.
type ResolverStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// HitRate returns the cache hit percentage, or 0 before any lookups.
func (rs ResolverStats) HitRate() float64 {
	total := rs.Hits + rs.Misses
	if total == 0 {
		return 0
	}
	return float64(rs.Hits) / float64(total) * 100
}

// Resolver answers "who made this album" using the cache first, then
// Last.fm, then the iTunes fallback. Safe for concurrent use.
type Resolver struct {
	Cache  ArtistCache
	Lastfm *LastfmClient
	ITunes *ITunesClient
	Logger throttle.Logger
	Clock  func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Resolve returns the artists for an album. Negative results are cached
// too, so reruns skip albums that resolved to nothing — except when the
// fallback was rate limited, which must not poison the cache.
func (r *Resolver) Resolve(ctx context.Context, album string) (Resolution, error) {
	if r == nil || r.Cache == nil {
		return Resolution{}, errors.New("resolver is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	album = strings.TrimSpace(album)
	if album == "" {
		return Resolution{}, errors.New("album is required")
	}

	cached, err := r.Cache.GetArtists(ctx, album)
	if err != nil {
		return Resolution{}, err
	}
	if cached != nil {
		r.hits.Add(1)
		return Resolution{Artists: cached.Artists, Source: cached.Source, FromCache: true}, nil
	}
	r.misses.Add(1)

	term := cleanAlbum(album)

	if r.Lastfm != nil {
		artists, err := r.Lastfm.SearchAlbumArtist(ctx, term)
		switch {
		case err != nil:
			r.logf("metadata: lastfm lookup for %q failed: %v", album, err)
		case len(artists) > 0:
			res := Resolution{Artists: artists, Source: lastfmSource}
			r.cache(ctx, album, res)
			return res, nil
		default:
			r.logf("metadata: lastfm: no matches found for %q", album)
		}
	}

	if r.ITunes != nil && !r.ITunes.Disabled() {
		artists, err := r.ITunes.SearchArtist(ctx, term, "album")
		if errors.Is(err, ErrFallbackDisabled) {
			r.logf("metadata: itunes rate limited, disabling fallback")
			return Resolution{}, nil
		}
		if err != nil {
			r.logf("metadata: itunes lookup for %q failed: %v", album, err)
			return Resolution{}, nil
		}

		res := Resolution{Artists: artists, Source: itunesSource}
		r.cache(ctx, album, res)
		return res, nil
	}

	return Resolution{}, nil
}

// Stats returns the hit/miss counters accumulated so far.
func (r *Resolver) Stats() ResolverStats {
	if r == nil {
		return ResolverStats{}
	}
	return ResolverStats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}

func (r *Resolver) cache(ctx context.Context, album string, res Resolution) {
	entry := &store.ArtistEntry{
		Album:    album,
		Artists:  res.Artists,
		Source:   res.Source,
		LookupID: uuid.New().String(),
		CachedAt: r.now(),
	}
	if err := r.Cache.SetArtists(ctx, entry); err != nil {
		r.logf("metadata: cache write for %q failed: %v", album, err)
	}
}

func (r *Resolver) logf(format string, args ...any) {
	if r.Logger == nil {
		return
	}
	r.Logger.Warnf(format, args...)
}

func (r *Resolver) now() time.Time {
	if r != nil && r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}

// cleanAlbum strips noise markers and surrounding whitespace from an
// album title before it is used as a search term.
func cleanAlbum(album string) string {
	cleaned := strings.TrimSpace(noiseMarkers.ReplaceAllString(album, ""))
	if cleaned == "" {
		return album
	}
	return cleaned
}
