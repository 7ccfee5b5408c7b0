package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SubmissionRecord journals one submitted chunk of listens.
type SubmissionRecord struct {
	BatchID     string    `json:"batch_id"`
	ChunkIndex  int       `json:"chunk_index"`
	ListenCount int       `json:"listen_count"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RecordSubmission appends a chunk outcome to the submission journal.
func (s *Store) RecordSubmission(ctx context.Context, rec *SubmissionRecord) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if rec == nil {
		return errors.New("submission record is required")
	}
	if rec.BatchID == "" {
		return errors.New("batch id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	submittedAt := rec.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO submission_log (batch_id, chunk_index, listen_count, status, submitted_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.BatchID, rec.ChunkIndex, rec.ListenCount, rec.Status, submittedAt.Unix())
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}

	return nil
}

// ListSubmissions returns the journal entries for a batch in chunk order.
func (s *Store) ListSubmissions(ctx context.Context, batchID string) ([]SubmissionRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT batch_id, chunk_index, listen_count, status, submitted_at
		FROM submission_log
		WHERE batch_id = ?
		ORDER BY chunk_index
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var records []SubmissionRecord
	for rows.Next() {
		var (
			rec         SubmissionRecord
			submittedAt int64
		)
		if err := rows.Scan(&rec.BatchID, &rec.ChunkIndex, &rec.ListenCount, &rec.Status, &submittedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		rec.SubmittedAt = time.Unix(submittedAt, 0).UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}
