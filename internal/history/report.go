package history

import (
	"sort"
	"time"
)

// ArtistTotal is one artist's aggregate play time.
type ArtistTotal struct {
	Artist     string  `json:"artist"`
	PlayMillis int64   `json:"play_millis"`
	Percent    float64 `json:"percent"`
}

// AlbumTotal is one album's aggregate play time.
type AlbumTotal struct {
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	PlayMillis int64  `json:"play_millis"`
}

// SongTotal is one song's aggregate play time.
type SongTotal struct {
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	Song       string `json:"song"`
	PlayMillis int64  `json:"play_millis"`
}

// ReportLimits caps how many entries each ranking keeps.
type ReportLimits struct {
	Artists int
	Albums  int
	Songs   int
}

// Report summarizes a set of listens.
type Report struct {
	Songs           int           `json:"songs"`
	LastPlayed      time.Time     `json:"last_played"`
	TotalPlayMillis int64         `json:"total_play_millis"`
	TopArtists      []ArtistTotal `json:"top_artists"`
	TopAlbums       []AlbumTotal  `json:"top_albums"`
	TopSongs        []SongTotal   `json:"top_songs"`
}

// TotalMinutes returns the total play time in minutes.
func (r Report) TotalMinutes() float64 {
	return minutes(r.TotalPlayMillis)
}

func minutes(millis int64) float64 {
	return float64(millis) / (1000 * 60)
}

func hours(millis int64) float64 {
	return float64(millis) / (1000 * 60 * 60)
}

// Minutes returns this artist's play time in minutes.
func (t ArtistTotal) Minutes() float64 { return minutes(t.PlayMillis) }

// Hours returns this album's play time in hours.
func (t AlbumTotal) Hours() float64 { return hours(t.PlayMillis) }

// Minutes returns this song's play time in minutes.
func (t SongTotal) Minutes() float64 { return minutes(t.PlayMillis) }

// BuildReport aggregates listens into play-time rankings. Ties sort by
// name so output is stable across runs.
func BuildReport(listens []Listen, limits ReportLimits) Report {
	report := Report{Songs: len(listens)}

	type albumKey struct{ artist, album string }
	type songKey struct{ artist, album, song string }

	artistMillis := make(map[string]int64)
	albumMillis := make(map[albumKey]int64)
	songMillis := make(map[songKey]int64)

	for _, l := range listens {
		report.TotalPlayMillis += l.PlayMillis
		if l.PlayedAt.After(report.LastPlayed) {
			report.LastPlayed = l.PlayedAt
		}
		artistMillis[l.Artist] += l.PlayMillis
		albumMillis[albumKey{l.Artist, l.Album}] += l.PlayMillis
		songMillis[songKey{l.Artist, l.Album, l.Song}] += l.PlayMillis
	}

	for artist, ms := range artistMillis {
		total := ArtistTotal{Artist: artist, PlayMillis: ms}
		if report.TotalPlayMillis > 0 {
			total.Percent = float64(ms) / float64(report.TotalPlayMillis) * 100
		}
		report.TopArtists = append(report.TopArtists, total)
	}
	sort.Slice(report.TopArtists, func(i, j int) bool {
		a, b := report.TopArtists[i], report.TopArtists[j]
		if a.PlayMillis != b.PlayMillis {
			return a.PlayMillis > b.PlayMillis
		}
		return a.Artist < b.Artist
	})
	report.TopArtists = clip(report.TopArtists, limits.Artists)

	for key, ms := range albumMillis {
		report.TopAlbums = append(report.TopAlbums, AlbumTotal{
			Artist:     key.artist,
			Album:      key.album,
			PlayMillis: ms,
		})
	}
	sort.Slice(report.TopAlbums, func(i, j int) bool {
		a, b := report.TopAlbums[i], report.TopAlbums[j]
		if a.PlayMillis != b.PlayMillis {
			return a.PlayMillis > b.PlayMillis
		}
		if a.Artist != b.Artist {
			return a.Artist < b.Artist
		}
		return a.Album < b.Album
	})
	report.TopAlbums = clip(report.TopAlbums, limits.Albums)

	for key, ms := range songMillis {
		report.TopSongs = append(report.TopSongs, SongTotal{
			Artist:     key.artist,
			Album:      key.album,
			Song:       key.song,
			PlayMillis: ms,
		})
	}
	sort.Slice(report.TopSongs, func(i, j int) bool {
		a, b := report.TopSongs[i], report.TopSongs[j]
		if a.PlayMillis != b.PlayMillis {
			return a.PlayMillis > b.PlayMillis
		}
		if a.Artist != b.Artist {
			return a.Artist < b.Artist
		}
		if a.Album != b.Album {
			return a.Album < b.Album
		}
		return a.Song < b.Song
	})
	report.TopSongs = clip(report.TopSongs, limits.Songs)

	return report
}

func clip[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
