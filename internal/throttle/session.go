// Package throttle provides a rate-limited HTTP session.
//
// A Session wraps an http.Client and bounds the rate of outbound requests
// using a leaky-bucket filler goroutine feeding a bounded token channel.
// Requests matching the session's filter rules can be exempted from (or
// restricted to) throttling. The session also tracks request and error
// counters for observability.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"
)

const (
	// logFiller is the rate (requests/sec) above which the filler switches
	// from the simple regime (queue length 1) to the batched regime
	// (queue length ceil(ln(rate))) to amortize wake-ups.
	logFiller = 20.0

	// closeGrace bounds how long Close and SetRateLimit wait for the
	// filler goroutine to stop before giving up.
	closeGrace = 500 * time.Millisecond
)

// Config describes a throttled session.
type Config struct {
	// RateLimit is the sustained request rate in requests per second.
	// Zero disables throttling entirely.
	RateLimit float64

	// Filters are evaluated in order against each outbound request.
	Filters []Filter

	// LimitFiltered controls the meaning of a filter match: when true,
	// matching requests are throttled and everything else passes; when
	// false, matching requests pass and everything else is throttled.
	LimitFiltered bool

	// Transport overrides the underlying round tripper.
	Transport http.RoundTripper

	// Timeout applies to the underlying http.Client.
	Timeout time.Duration

	Logger Logger
}

// Session is a rate-limited HTTP client. Concurrent use by multiple
// goroutines is supported; all callers share one token stream.
type Session struct {
	client *http.Client
	logger Logger

	mu            sync.Mutex
	rateLimit     float64
	limitFiltered bool
	filters       []Filter
	tokens        chan struct{}
	cancelFiller  context.CancelFunc
	fillerDone    chan struct{}

	stats sessionStats
}

// NewSession constructs a Session and, for a positive rate limit, starts
// its filler goroutine. The caller must Close the session to stop it.
func NewSession(cfg Config) (*Session, error) {
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("throttle: rate limit must be >= 0, got %v", cfg.RateLimit)
	}
	if math.IsNaN(cfg.RateLimit) || math.IsInf(cfg.RateLimit, 0) {
		return nil, errors.New("throttle: rate limit must be finite")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = &Noop{}
	}

	s := &Session{
		client: &http.Client{
			Transport: cfg.Transport,
			Timeout:   cfg.Timeout,
		},
		logger:        logger,
		rateLimit:     cfg.RateLimit,
		limitFiltered: cfg.LimitFiltered,
	}
	s.stats.reset(time.Now())

	for _, f := range cfg.Filters {
		if err := s.AddFilter(f); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.startFiller()
	s.mu.Unlock()

	return s, nil
}

// Do sends the request through admission control. When the request is
// subject to throttling, Do blocks until a token is available or the
// request's context is cancelled. Transport errors are returned unmodified
// and are not counted; completed responses update the session counters.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	limited := s.isLimitedLocked(req.Method, req.URL.String())
	tokens := s.tokens
	s.mu.Unlock()

	if limited && tokens != nil {
		select {
		case <-tokens:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	s.stats.record(ok)

	return resp, nil
}

// Get issues a throttled GET request.
func (s *Session) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return s.Do(req)
}

// Post issues a throttled POST request.
func (s *Session) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return s.Do(req)
}

// RateLimit returns the configured rate limit in requests per second.
func (s *Session) RateLimit() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLimit
}

// SetRateLimit stops the current filler and restarts it under the new
// rate. Tokens queued under the old rate are discarded; callers already
// blocked on admission remain blocked against the old queue until it is
// garbage collected, which is an accepted edge of live reconfiguration.
func (s *Session) SetRateLimit(rate float64) error {
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return fmt.Errorf("throttle: rate limit must be >= 0, got %v", rate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopFillerLocked()
	s.rateLimit = rate
	s.startFiller()
	return nil
}

// Close stops the filler goroutine, waiting up to the grace period for it
// to exit. A filler that fails to stop in time is logged, never fatal.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debugf("throttle: closing session, %s", s.stats.snapshot(s.rateLimit))
	s.stopFillerLocked()
	s.client.CloseIdleConnections()
	return nil
}

// startFiller spawns the leaky-bucket filler. Callers must hold s.mu.
func (s *Session) startFiller() {
	if s.rateLimit <= 0 {
		s.tokens = nil
		return
	}

	qlen := queueLen(s.rateLimit)
	wait := time.Duration(float64(qlen) / s.rateLimit * float64(time.Second))

	tokens := make(chan struct{}, qlen)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.tokens = tokens
	s.cancelFiller = cancel
	s.fillerDone = done

	go s.fill(ctx, tokens, qlen, wait, done)
}

// stopFillerLocked cancels the filler and waits for it within the grace
// period. Callers must hold s.mu.
func (s *Session) stopFillerLocked() {
	if s.cancelFiller == nil {
		return
	}

	s.cancelFiller()
	select {
	case <-s.fillerDone:
	case <-time.After(closeGrace):
		s.logger.Warnf("throttle: filler did not stop within %s", closeGrace)
	}

	s.cancelFiller = nil
	s.fillerDone = nil
	s.tokens = nil
}

// fill tops up the token channel at the configured long-run rate. In the
// simple regime qlen is 1 and one token is pushed per sleep; in the
// batched regime qlen tokens are pushed per sleep, which preserves the
// same average rate with fewer wake-ups at high limits.
func (s *Session) fill(ctx context.Context, tokens chan<- struct{}, qlen int, wait time.Duration, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		for i := 0; i < qlen; i++ {
			select {
			case tokens <- struct{}{}:
			case <-ctx.Done():
				s.logger.Debugf("throttle: filler cancelled")
				return
			}
		}

		timer.Reset(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			s.logger.Debugf("throttle: filler cancelled")
			return
		}
	}
}

// queueLen derives the admission queue capacity from the rate limit.
func queueLen(rate float64) int {
	if rate > logFiller {
		return int(math.Ceil(math.Log(rate)))
	}
	return 1
}
