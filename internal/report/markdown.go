package report

import (
	"fmt"
	"strings"

	"github.com/amrewind/rewind/internal/history"
	"github.com/amrewind/rewind/internal/store"
)

// MarkdownFormatter renders reports as markdown tables.
type MarkdownFormatter struct{}

// FormatReport renders a report as Markdown.
func (f *MarkdownFormatter) FormatReport(report *history.Report) (string, error) {
	if report == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## Listening report\n\n")
	sb.WriteString(fmt.Sprintf("- Songs played: %d\n", report.Songs))
	if !report.LastPlayed.IsZero() {
		sb.WriteString(fmt.Sprintf("- Last date: %s\n", report.LastPlayed.Format("2006-01-02")))
	}
	sb.WriteString(fmt.Sprintf("- Total play time (min): %.1f\n", report.TotalMinutes()))

	if len(report.TopArtists) > 0 {
		sb.WriteString(fmt.Sprintf("\n### Top %d artists by play time\n\n", len(report.TopArtists)))
		sb.WriteString("| # | Artist | Play Time (min) | Percentage |\n")
		sb.WriteString("|---|--------|-----------------|------------|\n")
		for i, a := range report.TopArtists {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.1f | %.1f |\n",
				i+1, escapeMarkdownCell(a.Artist), a.Minutes(), a.Percent))
		}
	}

	if len(report.TopAlbums) > 0 {
		sb.WriteString(fmt.Sprintf("\n### Top %d albums by play time\n\n", len(report.TopAlbums)))
		sb.WriteString("| # | Artist | Album | Play Time (h) |\n")
		sb.WriteString("|---|--------|-------|---------------|\n")
		for i, a := range report.TopAlbums {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.1f |\n",
				i+1, escapeMarkdownCell(a.Artist), escapeMarkdownCell(a.Album), a.Hours()))
		}
	}

	if len(report.TopSongs) > 0 {
		sb.WriteString(fmt.Sprintf("\n### Top %d songs by play time\n\n", len(report.TopSongs)))
		sb.WriteString("| # | Artist | Album | Song | Play Time (min) |\n")
		sb.WriteString("|---|--------|-------|------|-----------------|\n")
		for i, s := range report.TopSongs {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %.1f |\n",
				i+1, escapeMarkdownCell(s.Artist), escapeMarkdownCell(s.Album), escapeMarkdownCell(s.Song), s.Minutes()))
		}
	}

	return sb.String(), nil
}

// FormatCache renders cache entries as a markdown table.
func (f *MarkdownFormatter) FormatCache(entries []store.ArtistEntry) (string, error) {
	var sb strings.Builder
	sb.WriteString("## Artist cache\n\n")
	sb.WriteString("| Album | Artists | Source | Cached At |\n")
	sb.WriteString("|-------|---------|--------|-----------|\n")

	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeMarkdownCell(e.Album),
			escapeMarkdownCell(cacheArtists(e)),
			escapeMarkdownCell(e.Source),
			e.CachedAt.Format("2006-01-02 15:04"),
		))
	}

	sb.WriteString(fmt.Sprintf("\n**Entries**: %d\n", len(entries)))
	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
