// Package report renders listening reports and cache listings in
// table, JSON, and markdown formats.
package report

import (
	"fmt"
	"strings"

	"github.com/amrewind/rewind/internal/history"
	"github.com/amrewind/rewind/internal/store"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders reports and cache listings.
type Formatter interface {
	FormatReport(report *history.Report) (string, error)
	FormatCache(entries []store.ArtistEntry) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// cacheArtists renders a cache entry's artist list for display.
func cacheArtists(entry store.ArtistEntry) string {
	if entry.Unknown() {
		return "Unknown"
	}
	return strings.Join(entry.Artists, ", ")
}
