package cmd

import (
	"context"
	"fmt"
	"regexp"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/amrewind/rewind/internal/config"
	"github.com/amrewind/rewind/internal/metadata"
	"github.com/amrewind/rewind/internal/observability"
	"github.com/amrewind/rewind/internal/store"
	"github.com/amrewind/rewind/internal/throttle"
)

// openStore opens and migrates the libsql store from configuration.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// newSession builds the shared throttled session from configuration.
// The throttle logs through the given application logger; nil is allowed
// and silences the session.
func newSession(cfg *config.Config, logger *logging.Logger) (*throttle.Session, error) {
	filters := make([]throttle.Filter, 0, len(cfg.Throttle.Filters))
	for i, fc := range cfg.Throttle.Filters {
		filter := throttle.Filter{
			Method: fc.Method,
			Prefix: fc.Prefix,
		}
		if fc.Pattern != "" {
			pattern, err := regexp.Compile(fc.Pattern)
			if err != nil {
				return nil, fmt.Errorf("throttle.filters[%d]: %w", i, err)
			}
			filter.Pattern = pattern
		}
		filters = append(filters, filter)
	}

	return throttle.NewSession(throttle.Config{
		RateLimit:     cfg.Throttle.RateLimit,
		Filters:       filters,
		LimitFiltered: cfg.Throttle.LimitFiltered,
		Timeout:       cfg.Throttle.Timeout,
		Logger:        &observability.ThrottleLogger{Logger: logger},
	})
}

// newResolver builds the artist resolver on top of the session and
// cache store.
func newResolver(cfg *config.Config, session *throttle.Session, db *store.Store) *metadata.Resolver {
	resolver := &metadata.Resolver{
		Cache:  db,
		Logger: &observability.ThrottleLogger{Logger: observability.CLILogger},
		Lastfm: &metadata.LastfmClient{
			Session: session,
			APIKey:  cfg.Lastfm.APIKey,
			BaseURL: cfg.Lastfm.BaseURL,
		},
	}

	if cfg.ITunes.Enabled {
		resolver.ITunes = &metadata.ITunesClient{
			Session: session,
			BaseURL: cfg.ITunes.BaseURL,
			Country: cfg.ITunes.Country,
		}
	}

	return resolver
}
