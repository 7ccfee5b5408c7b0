package report

import (
	"encoding/json"

	"github.com/amrewind/rewind/internal/history"
	"github.com/amrewind/rewind/internal/store"
)

// JSONFormatter renders reports as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatReport renders a report as JSON.
func (f *JSONFormatter) FormatReport(report *history.Report) (string, error) {
	if report == nil {
		return "", nil
	}
	return f.marshal(report)
}

// FormatCache renders cache entries as JSON.
func (f *JSONFormatter) FormatCache(entries []store.ArtistEntry) (string, error) {
	if entries == nil {
		entries = []store.ArtistEntry{}
	}
	return f.marshal(entries)
}

func (f *JSONFormatter) marshal(v any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
