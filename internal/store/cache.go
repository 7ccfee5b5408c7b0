package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ArtistEntry is one cached album → artists resolution. An entry with no
// artists records that no match was found, so reruns skip the lookup.
type ArtistEntry struct {
	Album    string    `json:"album"`
	Artists  []string  `json:"artists"`
	Source   string    `json:"source"`
	LookupID string    `json:"lookup_id,omitempty"`
	CachedAt time.Time `json:"cached_at"`
}

// Unknown reports whether the entry marks an album with no resolution.
func (e *ArtistEntry) Unknown() bool {
	return e != nil && len(e.Artists) == 0
}

// CacheStats summarizes the artist cache.
type CacheStats struct {
	Total   int64 `json:"total"`
	Unknown int64 `json:"unknown"`
}

// GetArtists returns the cached resolution for an album, or nil when the
// album has never been looked up.
func (s *Store) GetArtists(ctx context.Context, album string) (*ArtistEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := strings.TrimSpace(album)
	if key == "" {
		return nil, errors.New("album is required")
	}

	var (
		artistsJSON string
		source      string
		lookupID    sql.NullString
		cachedAt    int64
	)

	row := s.DB.QueryRowContext(ctx, `
		SELECT artists, source, lookup_id, cached_at
		FROM artist_cache
		WHERE album = ?
	`, key)

	if err := row.Scan(&artistsJSON, &source, &lookupID, &cachedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch cached artists: %w", err)
	}

	var artists []string
	if artistsJSON != "" {
		if err := json.Unmarshal([]byte(artistsJSON), &artists); err != nil {
			return nil, fmt.Errorf("decode cached artists: %w", err)
		}
	}

	return &ArtistEntry{
		Album:    key,
		Artists:  artists,
		Source:   source,
		LookupID: lookupID.String,
		CachedAt: time.Unix(cachedAt, 0).UTC(),
	}, nil
}

// SetArtists upserts a resolution for an album.
func (s *Store) SetArtists(ctx context.Context, entry *ArtistEntry) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if entry == nil {
		return errors.New("entry is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	key := strings.TrimSpace(entry.Album)
	if key == "" {
		return errors.New("album is required")
	}

	artists := entry.Artists
	if artists == nil {
		artists = []string{}
	}
	artistsJSON, err := json.Marshal(artists)
	if err != nil {
		return fmt.Errorf("encode artists: %w", err)
	}

	cachedAt := entry.CachedAt
	if cachedAt.IsZero() {
		cachedAt = time.Now().UTC()
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO artist_cache (album, artists, source, lookup_id, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(album) DO UPDATE SET
			artists = excluded.artists,
			source = excluded.source,
			lookup_id = excluded.lookup_id,
			cached_at = excluded.cached_at
	`, key, string(artistsJSON), entry.Source, entry.LookupID, cachedAt.Unix())
	if err != nil {
		return fmt.Errorf("store cached artists: %w", err)
	}

	return nil
}

// ClearUnknowns deletes entries with no artists and returns how many were
// removed, so the next enrichment run retries those albums.
func (s *Store) ClearUnknowns(ctx context.Context) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM artist_cache WHERE artists = '[]'`)
	if err != nil {
		return 0, fmt.Errorf("clear unknown artists: %w", err)
	}

	return res.RowsAffected()
}

// ReplaceArtist rewrites every cached occurrence of an artist name and
// returns the number of entries changed.
func (s *Store) ReplaceArtist(ctx context.Context, find, replace string) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	find = strings.TrimSpace(find)
	if find == "" {
		return 0, errors.New("artist to replace is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	entries, err := s.ListEntries(ctx, 0)
	if err != nil {
		return 0, err
	}

	var changed int64
	for i := range entries {
		entry := &entries[i]
		touched := false
		for j, artist := range entry.Artists {
			if strings.TrimSpace(artist) == find {
				entry.Artists[j] = replace
				touched = true
			}
		}
		if !touched {
			continue
		}
		if err := s.SetArtists(ctx, entry); err != nil {
			return changed, err
		}
		changed++
	}

	return changed, nil
}

// ListEntries returns cache entries ordered by album; limit 0 means all.
func (s *Store) ListEntries(ctx context.Context, limit int) ([]ArtistEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	query := `SELECT album, artists, source, lookup_id, cached_at FROM artist_cache ORDER BY album`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var entries []ArtistEntry
	for rows.Next() {
		var (
			entry       ArtistEntry
			artistsJSON string
			lookupID    sql.NullString
			cachedAt    int64
		)
		if err := rows.Scan(&entry.Album, &artistsJSON, &entry.Source, &lookupID, &cachedAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		if artistsJSON != "" {
			if err := json.Unmarshal([]byte(artistsJSON), &entry.Artists); err != nil {
				return nil, fmt.Errorf("decode cache entry %q: %w", entry.Album, err)
			}
		}
		entry.LookupID = lookupID.String
		entry.CachedAt = time.Unix(cachedAt, 0).UTC()
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Stats counts cached and unknown albums.
func (s *Store) Stats(ctx context.Context) (CacheStats, error) {
	if s == nil || s.DB == nil {
		return CacheStats{}, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var stats CacheStats
	row := s.DB.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN artists = '[]' THEN 1 ELSE 0 END), 0)
		FROM artist_cache
	`)
	if err := row.Scan(&stats.Total, &stats.Unknown); err != nil {
		return CacheStats{}, fmt.Errorf("count cache entries: %w", err)
	}

	return stats, nil
}
