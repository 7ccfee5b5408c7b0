package throttle

import (
	"fmt"
	"sync"
	"time"
)

// Stats is a point-in-time snapshot of session counters.
type Stats struct {
	Rate      float64 `json:"rate"`
	RateLimit float64 `json:"rate_limit"`
	Count     uint64  `json:"count"`
	Errors    uint64  `json:"errors"`
}

// String renders the snapshot in a human-readable form.
func (st Stats) String() string {
	return fmt.Sprintf("rate limit: %s, rate: %s, requests: %d, errors: %d",
		RateString(st.RateLimit), RateString(st.Rate), st.Count, st.Errors)
}

// RateString formats a rate: ">= 1/sec" rates as requests/sec, fractional
// rates as secs/request, zero as "-".
func RateString(rate float64) string {
	switch {
	case rate >= 1:
		return fmt.Sprintf("%.1f requests/sec", rate)
	case rate > 0:
		return fmt.Sprintf("%.1f secs/request", 1/rate)
	default:
		return "-"
	}
}

// sessionStats tracks request counters under a single mutex so that
// concurrent completions never lose updates.
type sessionStats struct {
	mu        sync.Mutex
	startTime time.Time
	count     uint64
	errors    uint64
}

func (ss *sessionStats) reset(now time.Time) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.startTime = now
	ss.count = 0
}

func (ss *sessionStats) record(ok bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.count++
	if !ok {
		ss.errors++
	}
}

func (ss *sessionStats) snapshot(rateLimit float64) Stats {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.snapshotLocked(rateLimit)
}

// resetSnapshot captures the counters and restarts the measurement window
// in one critical section, so no completion lands between the two.
func (ss *sessionStats) resetSnapshot(rateLimit float64, now time.Time) Stats {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	snap := ss.snapshotLocked(rateLimit)
	ss.startTime = now
	ss.count = 0
	return snap
}

func (ss *sessionStats) snapshotLocked(rateLimit float64) Stats {
	return Stats{
		Rate:      ss.rateLocked(),
		RateLimit: rateLimit,
		Count:     ss.count,
		Errors:    ss.errors,
	}
}

// rateLocked computes count/elapsed, guarding against a zero interval.
func (ss *sessionStats) rateLocked() float64 {
	elapsed := time.Since(ss.startTime).Seconds()
	if elapsed <= 0 {
		elapsed = 1e-9
	}
	return float64(ss.count) / elapsed
}

// Stats returns the current session counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	rateLimit := s.rateLimit
	s.mu.Unlock()
	return s.stats.snapshot(rateLimit)
}

// ResetCounters returns the counters as they stood, then restarts the
// measurement window. The error counter is carried across resets so a
// long session keeps its cumulative failure tally.
func (s *Session) ResetCounters() Stats {
	s.mu.Lock()
	rateLimit := s.rateLimit
	s.mu.Unlock()

	return s.stats.resetSnapshot(rateLimit, time.Now())
}
