package history

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const activityHeader = "Apple ID Number,Album Name,Song Name,Event End Timestamp,Play Duration Milliseconds,Media Type\n"

func testFilter() ActivityFilter {
	return ActivityFilter{
		Start:         time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC),
		MinPlayMillis: 15000,
		MaxPlayMillis: 1800000,
	}
}

func TestLoadActivity(t *testing.T) {
	data := activityHeader +
		"1,Blue Train,Moment's Notice,2022-03-05T08:30:00.000Z,185000,AUDIO\n" +
		"1,Blue Train,Lazy Bird,2022-03-05T08:36:00.000Z,421000,AUDIO\n"

	listens, err := LoadActivity(strings.NewReader(data), testFilter())
	require.NoError(t, err)
	require.Len(t, listens, 2)

	require.Equal(t, "Blue Train", listens[0].Album)
	require.Equal(t, "Moment's Notice", listens[0].Song)
	require.Equal(t, int64(185000), listens[0].PlayMillis)
	require.Equal(t, time.Date(2022, 3, 5, 8, 30, 0, 0, time.UTC), listens[0].PlayedAt)
	require.Empty(t, listens[0].Artist)
}

func TestLoadActivityDropsIncompleteRows(t *testing.T) {
	data := activityHeader +
		"1,Blue Train,,2022-03-05T08:30:00.000Z,185000,AUDIO\n" +
		"1,,Moment's Notice,2022-03-05T08:30:00.000Z,185000,AUDIO\n" +
		"1,Blue Train,Moment's Notice,,185000,AUDIO\n" +
		"1,Blue Train,Moment's Notice,not-a-date,185000,AUDIO\n" +
		"1,Blue Train,Lazy Bird,2022-03-05T08:36:00.000Z,421000,AUDIO\n"

	listens, err := LoadActivity(strings.NewReader(data), testFilter())
	require.NoError(t, err)
	require.Len(t, listens, 1)
	require.Equal(t, "Lazy Bird", listens[0].Song)
}

func TestLoadActivityFiltersShortAndOldPlays(t *testing.T) {
	data := activityHeader +
		"1,Blue Train,Skipped,2022-03-05T08:30:00.000Z,4000,AUDIO\n" +
		"1,Blue Train,Ancient,2015-06-01T08:30:00.000Z,185000,AUDIO\n" +
		"1,Blue Train,Boundary,2016-01-01T00:00:00.000Z,185000,AUDIO\n" +
		"1,Blue Train,Kept,2022-03-05T08:36:00.000Z,15000,AUDIO\n"

	listens, err := LoadActivity(strings.NewReader(data), testFilter())
	require.NoError(t, err)
	require.Len(t, listens, 2)
	// The start date is inclusive: a play landing exactly on it stays.
	require.Equal(t, "Boundary", listens[0].Song)
	require.Equal(t, "Kept", listens[1].Song)
}

func TestLoadActivityClipsMarathonPlays(t *testing.T) {
	data := activityHeader +
		"1,Ambient Works,Sleep Loop,2022-03-05T08:30:00.000Z,7200000,AUDIO\n"

	listens, err := LoadActivity(strings.NewReader(data), testFilter())
	require.NoError(t, err)
	require.Len(t, listens, 1)
	require.Equal(t, int64(1800000), listens[0].PlayMillis)
}

func TestLoadActivityAcceptsFloatDurations(t *testing.T) {
	data := activityHeader +
		"1,Blue Train,Moment's Notice,2022-03-05T08:30:00.000Z,185000.0,AUDIO\n"

	listens, err := LoadActivity(strings.NewReader(data), testFilter())
	require.NoError(t, err)
	require.Len(t, listens, 1)
	require.Equal(t, int64(185000), listens[0].PlayMillis)
}

func TestLoadActivityMissingColumn(t *testing.T) {
	data := "Album Name,Song Name,Event End Timestamp\nBlue Train,Lazy Bird,2022-03-05T08:30:00.000Z\n"

	_, err := LoadActivity(strings.NewReader(data), testFilter())
	require.Error(t, err)
	require.Contains(t, err.Error(), durationColumn)
}

func TestWriteActivityRoundTrip(t *testing.T) {
	in := []Listen{
		{
			Album:      "Blue Train",
			Song:       "Lazy Bird",
			Artist:     "John Coltrane",
			PlayedAt:   time.Date(2022, 3, 5, 8, 36, 0, 0, time.UTC),
			PlayMillis: 421000,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteActivity(&buf, in))

	out, err := ReadEnriched(&buf)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestParseTimestampLayouts(t *testing.T) {
	for _, raw := range []string{
		"2022-03-05T08:30:00.123Z",
		"2022-03-05T08:30:00Z",
		"2022-03-05T08:30:00.123+0800",
		"2022-03-05T08:30:00+08:00",
	} {
		_, err := parseTimestamp(raw)
		require.NoError(t, err, raw)
	}

	_, err := parseTimestamp("March 5th")
	require.Error(t, err)
}
