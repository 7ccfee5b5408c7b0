// Package listenbrainz submits listening history to the ListenBrainz
// import API in token-authenticated chunks.
package listenbrainz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/amrewind/rewind/internal/history"
	"github.com/amrewind/rewind/internal/store"
	"github.com/amrewind/rewind/internal/throttle"
)

const (
	defaultBaseURL   = "https://api.listenbrainz.org"
	defaultChunkSize = 500

	// listenTypeImport marks a batch of historical listens, as opposed to
	// single or playing_now submissions.
	listenTypeImport = "import"
)

// Journal records submission outcomes for later inspection.
// *store.Store satisfies it.
type Journal interface {
	RecordSubmission(ctx context.Context, rec *store.SubmissionRecord) error
}

// Doer performs an HTTP request. *throttle.Session satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client submits listens to ListenBrainz.
type Client struct {
	Session Doer
	Token   string
	BaseURL string

	// ChunkSize bounds listens per request; the API caps payload size.
	ChunkSize int

	// Pretend logs what would be submitted without calling the API.
	Pretend bool

	Journal Journal
	Logger  throttle.Logger
	Clock   func() time.Time
}

// SubmitResult summarizes one submission run.
type SubmitResult struct {
	BatchID string `json:"batch_id"`
	Chunks  int    `json:"chunks"`
	Listens int    `json:"listens"`
	Pretend bool   `json:"pretend"`
}

type submitRequest struct {
	ListenType string  `json:"listen_type"`
	Payload    []track `json:"payload"`
}

type track struct {
	ListenedAt    int64         `json:"listened_at"`
	TrackMetadata trackMetadata `json:"track_metadata"`
}

type trackMetadata struct {
	ArtistName  string `json:"artist_name"`
	TrackName   string `json:"track_name"`
	ReleaseName string `json:"release_name"`
}

// Submit imports the listens in chunks. Each chunk is journaled under a
// shared batch ID; a failed chunk stops the run with the failure
// recorded, so a rerun can resume from the journal.
func (c *Client) Submit(ctx context.Context, listens []history.Listen) (SubmitResult, error) {
	if c == nil {
		return SubmitResult{}, errors.New("listenbrainz client is not configured")
	}
	if !c.Pretend {
		if c.Session == nil {
			return SubmitResult{}, errors.New("listenbrainz client has no session")
		}
		if c.Token == "" {
			return SubmitResult{}, errors.New("listenbrainz token is required")
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	chunkSize := c.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}

	result := SubmitResult{
		BatchID: uuid.New().String(),
		Pretend: c.Pretend,
	}

	for start := 0; start < len(listens); start += chunkSize {
		end := min(start+chunkSize, len(listens))
		chunk := listens[start:end]

		status := "submitted"
		if c.Pretend {
			status = "pretend"
			c.logf("listenbrainz: pretend chunk %d: would submit %d listens", result.Chunks, len(chunk))
		} else if err := c.submitChunk(ctx, chunk); err != nil {
			c.journal(ctx, result.BatchID, result.Chunks, len(chunk), "failed")
			return result, fmt.Errorf("chunk %d: %w", result.Chunks, err)
		}

		c.journal(ctx, result.BatchID, result.Chunks, len(chunk), status)
		result.Chunks++
		result.Listens += len(chunk)
	}

	return result, nil
}

func (c *Client) submitChunk(ctx context.Context, listens []history.Listen) error {
	payload := make([]track, len(listens))
	for i, l := range listens {
		payload[i] = track{
			ListenedAt: l.PlayedAt.Unix(),
			TrackMetadata: trackMetadata{
				ArtistName:  l.Artist,
				TrackName:   l.Song,
				ReleaseName: l.Album,
			},
		}
	}

	body, err := json.Marshal(submitRequest{ListenType: listenTypeImport, Payload: payload})
	if err != nil {
		return err
	}

	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/1/submit-listens", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.Token)

	resp, err := c.Session.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("submit-listens returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}

func (c *Client) journal(ctx context.Context, batchID string, chunk, count int, status string) {
	if c.Journal == nil {
		return
	}
	rec := &store.SubmissionRecord{
		BatchID:     batchID,
		ChunkIndex:  chunk,
		ListenCount: count,
		Status:      status,
		SubmittedAt: c.now(),
	}
	if err := c.Journal.RecordSubmission(ctx, rec); err != nil {
		c.logf("listenbrainz: journal write failed: %v", err)
	}
}

func (c *Client) logf(format string, args ...any) {
	if c.Logger == nil {
		return
	}
	c.Logger.Debugf(format, args...)
}

func (c *Client) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
