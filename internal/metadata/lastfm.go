// Package metadata resolves artist names for album titles using the
// Last.fm search API with an iTunes Search fallback. All requests go
// through a shared throttled session.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const lastfmSource = "lastfm"

// Doer performs an HTTP request. *throttle.Session satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LastfmClient queries the Last.fm album.search endpoint.
type LastfmClient struct {
	Session Doer
	APIKey  string
	BaseURL string
}

type lastfmSearchResponse struct {
	Results struct {
		AlbumMatches struct {
			Album []struct {
				Name   string `json:"name"`
				Artist string `json:"artist"`
			} `json:"album"`
		} `json:"albummatches"`
	} `json:"results"`
}

// SearchAlbumArtist returns the artist of the best album match, or an
// empty slice when Last.fm has no match.
func (c *LastfmClient) SearchAlbumArtist(ctx context.Context, album string) ([]string, error) {
	if c == nil || c.Session == nil {
		return nil, errors.New("lastfm client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	album = strings.TrimSpace(album)
	if album == "" {
		return nil, errors.New("album is required")
	}

	base := c.BaseURL
	if base == "" {
		base = "http://ws.audioscrobbler.com/2.0"
	}

	params := url.Values{}
	params.Set("method", "album.search")
	params.Set("album", album)
	params.Set("api_key", c.APIKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lastfm: unexpected status %d", resp.StatusCode)
	}

	var payload lastfmSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("lastfm: decode album.search response: %w", err)
	}

	matches := payload.Results.AlbumMatches.Album
	if len(matches) == 0 || strings.TrimSpace(matches[0].Artist) == "" {
		return []string{}, nil
	}

	return []string{matches[0].Artist}, nil
}
