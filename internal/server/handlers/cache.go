package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	apperrors "github.com/amrewind/rewind/internal/errors"
	"github.com/amrewind/rewind/internal/store"
	"github.com/amrewind/rewind/internal/throttle"
)

// CacheStore is the slice of the store the cache API needs.
// *store.Store satisfies it.
type CacheStore interface {
	ListEntries(ctx context.Context, limit int) ([]store.ArtistEntry, error)
	Stats(ctx context.Context) (store.CacheStats, error)
}

// SessionStats exposes throttled-session counters.
// *throttle.Session satisfies it.
type SessionStats interface {
	Stats() throttle.Stats
}

// CacheAPI serves the artist cache over HTTP.
type CacheAPI struct {
	Store   CacheStore
	Session SessionStats
}

// CacheListResponse is the /api/v1/cache response body.
type CacheListResponse struct {
	Entries []store.ArtistEntry `json:"entries"`
	Count   int                 `json:"count"`
}

// StatsResponse is the /api/v1/stats response body.
type StatsResponse struct {
	Cache    store.CacheStats `json:"cache"`
	Throttle *throttle.Stats  `json:"throttle,omitempty"`
}

// ListHandler serves cached album resolutions, newest limit first when
// ?limit= is given.
func (api *CacheAPI) ListHandler(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.Store == nil {
		respondWithError(w, r, apperrors.NewInternalError("cache store is not configured"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, r, apperrors.NewInvalidInputError("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	entries, err := api.Store.ListEntries(r.Context(), limit)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list cache entries"))
		return
	}
	if entries == nil {
		entries = []store.ArtistEntry{}
	}

	response := CacheListResponse{Entries: entries, Count: len(entries)}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

// StatsHandler serves cache and throttle counters.
func (api *CacheAPI) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.Store == nil {
		respondWithError(w, r, apperrors.NewInternalError("cache store is not configured"))
		return
	}

	cacheStats, err := api.Store.Stats(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to read cache stats"))
		return
	}

	response := StatsResponse{Cache: cacheStats}
	if api.Session != nil {
		stats := api.Session.Stats()
		response.Throttle = &stats
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
