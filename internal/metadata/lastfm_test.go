package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLastfmSearchAlbumArtist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "album.search", r.URL.Query().Get("method"))
		require.Equal(t, "Blue Train", r.URL.Query().Get("album"))
		require.Equal(t, "key123", r.URL.Query().Get("api_key"))
		require.Equal(t, "json", r.URL.Query().Get("format"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"albummatches":{"album":[{"name":"Blue Train","artist":"John Coltrane"}]}}}`))
	}))
	defer server.Close()

	client := &LastfmClient{
		Session: server.Client(),
		APIKey:  "key123",
		BaseURL: server.URL,
	}

	artists, err := client.SearchAlbumArtist(context.Background(), "Blue Train")
	require.NoError(t, err)
	require.Equal(t, []string{"John Coltrane"}, artists)
}

func TestLastfmSearchNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":{"albummatches":{"album":[]}}}`))
	}))
	defer server.Close()

	client := &LastfmClient{Session: server.Client(), BaseURL: server.URL}

	artists, err := client.SearchAlbumArtist(context.Background(), "Nothing Here")
	require.NoError(t, err)
	require.Empty(t, artists)
	require.NotNil(t, artists)
}

func TestLastfmSearchNonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer server.Close()

	client := &LastfmClient{Session: server.Client(), BaseURL: server.URL}

	_, err := client.SearchAlbumArtist(context.Background(), "Blue Train")
	require.Error(t, err)
}

func TestLastfmSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := &LastfmClient{Session: server.Client(), BaseURL: server.URL}

	_, err := client.SearchAlbumArtist(context.Background(), "Blue Train")
	require.Error(t, err)
	require.Contains(t, err.Error(), "500")
}
