package store

import (
	"context"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS artist_cache (
		album TEXT PRIMARY KEY,
		artists TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		lookup_id TEXT,
		cached_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_artist_cache_source ON artist_cache(source);`,
	`CREATE TABLE IF NOT EXISTS submission_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		batch_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		listen_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		submitted_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_submission_log_batch ON submission_log(batch_id);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	return nil
}
