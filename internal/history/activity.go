// Package history ingests Apple Music privacy-export CSVs, enriches the
// plays with artist names, and aggregates them into listening reports.
package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Column headers as they appear in the Apple Music privacy export.
const (
	albumColumn    = "Album Name"
	durationColumn = "Play Duration Milliseconds"
	songColumn     = "Song Name"
	dateColumn     = "Event End Timestamp"
)

// timestampLayouts covers the timestamp shapes seen across export
// versions; newer exports carry fractional seconds and a zone offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
}

// Listen is one qualifying play from the activity export. Artist is
// empty until enrichment fills it in.
type Listen struct {
	Album      string    `json:"album"`
	Song       string    `json:"song"`
	Artist     string    `json:"artist"`
	PlayedAt   time.Time `json:"played_at"`
	PlayMillis int64     `json:"play_millis"`
}

// ActivityFilter selects which rows of the export qualify as listens.
type ActivityFilter struct {
	// Start drops plays at or before this instant. The zero value keeps
	// everything.
	Start time.Time

	// MinPlayMillis drops plays shorter than this; skips and previews
	// should not count as listens.
	MinPlayMillis int64

	// MaxPlayMillis clips longer plays so a track left on repeat
	// overnight does not dominate the report. 0 disables clipping.
	MaxPlayMillis int64
}

// LoadActivityFile reads and filters an activity export from disk.
func LoadActivityFile(path string, filter ActivityFilter) ([]Listen, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open activity export: %w", err)
	}
	defer f.Close() // nolint:errcheck // best-effort cleanup on read-only file

	listens, err := LoadActivity(f, filter)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return listens, nil
}

// LoadActivity parses an activity export. Rows missing any column of
// interest are dropped, as are rows failing the filter.
func LoadActivity(r io.Reader, filter ActivityFilter) ([]Listen, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := columnIndex(header, albumColumn, songColumn, durationColumn, dateColumn)
	if err != nil {
		return nil, err
	}

	var listens []Listen
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		listen, ok := parseListen(record, cols, filter)
		if !ok {
			continue
		}
		listens = append(listens, listen)
	}

	return listens, nil
}

// columnIndex maps the wanted headers to their positions. The export has
// dozens of columns; only these four matter here.
func columnIndex(header []string, wanted ...string) (map[string]int, error) {
	cols := make(map[string]int, len(wanted))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range wanted {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("activity export is missing column %q", name)
		}
	}
	return cols, nil
}

func parseListen(record []string, cols map[string]int, filter ActivityFilter) (Listen, bool) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	album := field(albumColumn)
	song := field(songColumn)
	rawDuration := field(durationColumn)
	rawDate := field(dateColumn)
	if album == "" || song == "" || rawDuration == "" || rawDate == "" {
		return Listen{}, false
	}

	millis, err := parseMillis(rawDuration)
	if err != nil {
		return Listen{}, false
	}
	playedAt, err := parseTimestamp(rawDate)
	if err != nil {
		return Listen{}, false
	}

	if millis < filter.MinPlayMillis {
		return Listen{}, false
	}
	if !filter.Start.IsZero() && playedAt.Before(filter.Start) {
		return Listen{}, false
	}
	if filter.MaxPlayMillis > 0 && millis > filter.MaxPlayMillis {
		millis = filter.MaxPlayMillis
	}

	return Listen{
		Album:      album,
		Song:       song,
		PlayedAt:   playedAt.UTC(),
		PlayMillis: millis,
	}, true
}

// parseMillis accepts both integer and float renderings; exports written
// through spreadsheet tools sometimes carry "185000.0".
func parseMillis(raw string) (int64, error) {
	if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return millis, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// WriteActivity renders enriched listens back out as CSV, preserving the
// export's column names so the file round-trips into the submit command.
func WriteActivity(w io.Writer, listens []Listen) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{dateColumn, "Artist", songColumn, albumColumn, durationColumn}); err != nil {
		return err
	}
	for _, l := range listens {
		record := []string{
			l.PlayedAt.Format(time.RFC3339Nano),
			l.Artist,
			l.Song,
			l.Album,
			strconv.FormatInt(l.PlayMillis, 10),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadEnriched parses a CSV previously written by WriteActivity.
func ReadEnriched(r io.Reader) ([]Listen, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, dateColumn, "Artist", songColumn, albumColumn, durationColumn)
	if err != nil {
		return nil, err
	}

	var listens []Listen
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		field := func(name string) string {
			i := cols[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		playedAt, err := parseTimestamp(field(dateColumn))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(listens)+2, err)
		}
		millis, err := parseMillis(field(durationColumn))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(listens)+2, err)
		}

		listens = append(listens, Listen{
			Album:      field(albumColumn),
			Song:       field(songColumn),
			Artist:     field("Artist"),
			PlayedAt:   playedAt.UTC(),
			PlayMillis: millis,
		})
	}

	return listens, nil
}
