package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"unicode"
)

const itunesSource = "itunes"

// ErrFallbackDisabled is returned once the iTunes API has rate limited
// us; the fallback stays off for the remainder of the run.
var ErrFallbackDisabled = errors.New("itunes: fallback disabled after rate limit")

// ITunesClient queries the iTunes Search API.
type ITunesClient struct {
	Session Doer
	BaseURL string
	Country string

	disabled atomic.Bool
}

type itunesSearchResponse struct {
	Results []struct {
		ArtistName string `json:"artistName"`
	} `json:"results"`
}

// Disabled reports whether a prior 403 switched the fallback off.
func (c *ITunesClient) Disabled() bool {
	return c != nil && c.disabled.Load()
}

// SearchArtist returns the artist of the best match for a search term,
// or an empty slice when iTunes has no match. A 403 response disables
// the client and returns ErrFallbackDisabled.
func (c *ITunesClient) SearchArtist(ctx context.Context, term, entity string) ([]string, error) {
	if c == nil || c.Session == nil {
		return nil, errors.New("itunes client is not configured")
	}
	if c.disabled.Load() {
		return nil, ErrFallbackDisabled
	}
	if ctx == nil {
		ctx = context.Background()
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, errors.New("search term is required")
	}

	base := c.BaseURL
	if base == "" {
		base = "https://itunes.apple.com/search"
	}
	country := c.Country
	if country == "" {
		country = "US"
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("country", country)
	params.Set("lang", searchLang(term))
	params.Set("entity", entity)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode == http.StatusForbidden {
		c.disabled.Store(true)
		return nil, ErrFallbackDisabled
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("itunes: unexpected status %d", resp.StatusCode)
	}

	var payload itunesSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("itunes: decode search response: %w", err)
	}

	if len(payload.Results) == 0 || strings.TrimSpace(payload.Results[0].ArtistName) == "" {
		return []string{}, nil
	}

	return []string{payload.Results[0].ArtistName}, nil
}

// searchLang picks a sensible lang parameter: ja_jp for terms with
// non-ASCII characters, en_us otherwise.
func searchLang(term string) string {
	for _, r := range term {
		if r > unicode.MaxASCII {
			return "ja_jp"
		}
	}
	return "en_us"
}
