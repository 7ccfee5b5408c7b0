package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/amrewind/rewind/internal/history"
	"github.com/amrewind/rewind/internal/store"
)

// TableFormatter renders reports as ASCII tables.
type TableFormatter struct{}

// FormatReport renders the summary and ranking tables.
func (f *TableFormatter) FormatReport(report *history.Report) (string, error) {
	if report == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Songs played: %d\n", report.Songs))
	if !report.LastPlayed.IsZero() {
		sb.WriteString(fmt.Sprintf("Last date: %s\n", report.LastPlayed.Format("2006-01-02")))
	}
	sb.WriteString(fmt.Sprintf("Total play time (min): %.1f\n", report.TotalMinutes()))

	if len(report.TopArtists) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetTitle(fmt.Sprintf("Top %d artists by play time", len(report.TopArtists)))
		t.AppendHeader(table.Row{"#", "Artist", "Play Time (min)", "Percentage"})
		for i, a := range report.TopArtists {
			t.AppendRow(table.Row{i + 1, a.Artist, fmt.Sprintf("%.1f", a.Minutes()), fmt.Sprintf("%.1f", a.Percent)})
		}
		sb.WriteString("\n" + t.Render() + "\n")
	}

	if len(report.TopAlbums) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetTitle(fmt.Sprintf("Top %d albums by play time", len(report.TopAlbums)))
		t.AppendHeader(table.Row{"#", "Artist", "Album", "Play Time (h)"})
		for i, a := range report.TopAlbums {
			t.AppendRow(table.Row{i + 1, a.Artist, a.Album, fmt.Sprintf("%.1f", a.Hours())})
		}
		sb.WriteString("\n" + t.Render() + "\n")
	}

	if len(report.TopSongs) > 0 {
		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetTitle(fmt.Sprintf("Top %d songs by play time", len(report.TopSongs)))
		t.AppendHeader(table.Row{"#", "Artist", "Album", "Song", "Play Time (min)"})
		for i, s := range report.TopSongs {
			t.AppendRow(table.Row{i + 1, s.Artist, s.Album, s.Song, fmt.Sprintf("%.1f", s.Minutes())})
		}
		sb.WriteString("\n" + t.Render() + "\n")
	}

	return sb.String(), nil
}

// FormatCache renders cache entries as a table.
func (f *TableFormatter) FormatCache(entries []store.ArtistEntry) (string, error) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Album", "Artists", "Source", "Cached At"})

	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Album,
			cacheArtists(e),
			e.Source,
			e.CachedAt.Format("2006-01-02 15:04"),
		})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d entries", len(entries))})

	return t.Render(), nil
}
