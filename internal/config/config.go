// Package config provides centralized configuration management for rewind.
// Configuration is resolved in three layers: embedded defaults, an optional
// YAML config file, and REWIND_* environment variables.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Throttle     ThrottleConfig     `mapstructure:"throttle"`
	Lastfm       LastfmConfig       `mapstructure:"lastfm"`
	ITunes       ITunesConfig       `mapstructure:"itunes"`
	ListenBrainz ListenBrainzConfig `mapstructure:"listenbrainz"`
	History      HistoryConfig      `mapstructure:"history"`
	Store        StoreConfig        `mapstructure:"store"`
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`

	// Workers bounds concurrent artist lookups during enrichment.
	Workers int `mapstructure:"workers"`
}

// ThrottleConfig configures the shared rate-limited HTTP session.
type ThrottleConfig struct {
	// RateLimit is the sustained request rate in requests/sec; 0 disables
	// throttling.
	RateLimit float64 `mapstructure:"rate_limit"`

	// LimitFiltered selects whether filter matches are throttled (true)
	// or exempt (false).
	LimitFiltered bool `mapstructure:"limit_filtered"`

	Filters []FilterConfig `mapstructure:"filters"`

	Timeout time.Duration `mapstructure:"timeout"`
}

// FilterConfig is one throttling filter rule. Pattern, when set, is a
// regular expression matched at the start of the URL; otherwise Prefix is
// a plain string prefix.
type FilterConfig struct {
	Method  string `mapstructure:"method"`
	Prefix  string `mapstructure:"prefix"`
	Pattern string `mapstructure:"pattern"`
}

// LastfmConfig configures the Last.fm album search client.
type LastfmConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// ITunesConfig configures the iTunes Search fallback client.
type ITunesConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	Country string `mapstructure:"country"`
}

// ListenBrainzConfig configures listen submission.
type ListenBrainzConfig struct {
	Token     string `mapstructure:"token"`
	BaseURL   string `mapstructure:"base_url"`
	ChunkSize int    `mapstructure:"chunk_size"`
}

// HistoryConfig configures CSV ingestion and report shape.
type HistoryConfig struct {
	ActivityFile  string `mapstructure:"activity_file"`
	ContainerFile string `mapstructure:"container_file"`

	// StartDate drops plays before this date (YYYY-MM-DD, UTC).
	StartDate string `mapstructure:"start_date"`

	// MinPlayMillis drops plays shorter than this; MaxPlayMillis clips
	// longer plays.
	MinPlayMillis int64 `mapstructure:"min_play_ms"`
	MaxPlayMillis int64 `mapstructure:"max_play_ms"`

	TopArtists int `mapstructure:"top_artists"`
	TopAlbums  int `mapstructure:"top_albums"`
	TopSongs   int `mapstructure:"top_songs"`
}

// StoreConfig contains database configuration for libsql/Turso.
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// ServerConfig contains HTTP server configuration for serve mode.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level controls the minimum log level.
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`
}

// Validate rejects configurations the rest of the application cannot run
// with. Invalid constructor input fails fast here rather than surfacing
// later in the request path.
func (c *Config) Validate() error {
	if c.Throttle.RateLimit < 0 {
		return fmt.Errorf("throttle.rate_limit must be >= 0, got %v", c.Throttle.RateLimit)
	}
	for i, f := range c.Throttle.Filters {
		if f.Prefix == "" && f.Pattern == "" {
			return fmt.Errorf("throttle.filters[%d]: prefix or pattern is required", i)
		}
	}
	if c.ListenBrainz.ChunkSize <= 0 {
		return fmt.Errorf("listenbrainz.chunk_size must be > 0, got %d", c.ListenBrainz.ChunkSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.History.MinPlayMillis < 0 || c.History.MaxPlayMillis < c.History.MinPlayMillis {
		return fmt.Errorf("history play duration bounds are inconsistent: min %d, max %d",
			c.History.MinPlayMillis, c.History.MaxPlayMillis)
	}
	if _, err := c.History.Start(); err != nil {
		return err
	}
	return nil
}

// Start parses the configured start date as midnight UTC.
func (h HistoryConfig) Start() (time.Time, error) {
	if h.StartDate == "" {
		return time.Time{}, nil
	}
	start, err := time.Parse("2006-01-02", h.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("history.start_date: %w", err)
	}
	return start.UTC(), nil
}
