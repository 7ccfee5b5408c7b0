package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Container Details export headers.
const (
	descriptionColumn = "Container Description"
	artistsColumn     = "Artists"
)

type containerEntry struct {
	description string
	artists     []string
}

// ContainerIndex answers artist lookups from the Container Details
// export. It is consulted before any network lookup: when the export
// already names the artists for an album, no API call is needed.
type ContainerIndex struct {
	entries []containerEntry
}

// LoadContainersFile reads a Container Details export from disk. A
// missing file yields an empty index rather than an error; not every
// privacy export includes it.
func LoadContainersFile(path string) (*ContainerIndex, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ContainerIndex{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open container export: %w", err)
	}
	defer f.Close() // nolint:errcheck // best-effort cleanup on read-only file

	ix, err := LoadContainers(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return ix, nil
}

// LoadContainers parses a Container Details export. Rows without a
// description or artists are dropped.
func LoadContainers(r io.Reader) (*ContainerIndex, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header, descriptionColumn, artistsColumn)
	if err != nil {
		return nil, err
	}

	ix := &ContainerIndex{}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		description := fieldAt(record, cols[descriptionColumn])
		rawArtists := fieldAt(record, cols[artistsColumn])
		if description == "" || rawArtists == "" {
			continue
		}

		ix.entries = append(ix.entries, containerEntry{
			description: description,
			artists:     splitArtists(rawArtists),
		})
	}

	return ix, nil
}

// Lookup returns the artists of the first container whose description
// contains the album title, or nil when no container matches.
func (ix *ContainerIndex) Lookup(album string) []string {
	if ix == nil || album == "" {
		return nil
	}
	for _, e := range ix.entries {
		if strings.Contains(e.description, album) {
			return e.artists
		}
	}
	return nil
}

// Len reports how many containers the index holds.
func (ix *ContainerIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}

func fieldAt(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// splitArtists splits the export's comma-joined artist list.
func splitArtists(raw string) []string {
	parts := strings.Split(raw, ", ")
	artists := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			artists = append(artists, p)
		}
	}
	return artists
}
