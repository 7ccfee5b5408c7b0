package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestITunesSearchArtist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Blue Train", r.URL.Query().Get("term"))
		require.Equal(t, "music", r.URL.Query().Get("media"))
		require.Equal(t, "HK", r.URL.Query().Get("country"))
		require.Equal(t, "en_us", r.URL.Query().Get("lang"))
		require.Equal(t, "album", r.URL.Query().Get("entity"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCount":1,"results":[{"artistName":"John Coltrane"}]}`))
	}))
	defer server.Close()

	client := &ITunesClient{Session: server.Client(), BaseURL: server.URL, Country: "HK"}

	artists, err := client.SearchArtist(context.Background(), "Blue Train", "album")
	require.NoError(t, err)
	require.Equal(t, []string{"John Coltrane"}, artists)
}

func TestITunesSearchJapaneseTermUsesJapaneseLang(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "ja_jp", r.URL.Query().Get("lang"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCount":0,"results":[]}`))
	}))
	defer server.Close()

	client := &ITunesClient{Session: server.Client(), BaseURL: server.URL}

	artists, err := client.SearchArtist(context.Background(), "宇多田ヒカル", "album")
	require.NoError(t, err)
	require.Empty(t, artists)
}

func TestITunesForbiddenDisablesFallback(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := &ITunesClient{Session: server.Client(), BaseURL: server.URL}
	require.False(t, client.Disabled())

	_, err := client.SearchArtist(context.Background(), "Blue Train", "album")
	require.ErrorIs(t, err, ErrFallbackDisabled)
	require.True(t, client.Disabled())

	// Subsequent lookups fail fast without touching the network.
	_, err = client.SearchArtist(context.Background(), "Giant Steps", "album")
	require.ErrorIs(t, err, ErrFallbackDisabled)
	require.Equal(t, 1, calls)
}

func TestSearchLang(t *testing.T) {
	require.Equal(t, "en_us", searchLang("Blue Train"))
	require.Equal(t, "ja_jp", searchLang("First Love 宇多田"))
}
