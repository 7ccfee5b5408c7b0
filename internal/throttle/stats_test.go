package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateString(t *testing.T) {
	require.Equal(t, "2.0 requests/sec", RateString(2))
	require.Equal(t, "1.0 requests/sec", RateString(1))
	require.Equal(t, "3.3 secs/request", RateString(0.3))
	require.Equal(t, "10.0 secs/request", RateString(0.1))
	require.Equal(t, "-", RateString(0))
}

func TestStatsString(t *testing.T) {
	st := Stats{Rate: 1.5, RateLimit: 0.5, Count: 12, Errors: 2}
	require.Equal(t, "rate limit: 2.0 secs/request, rate: 1.5 requests/sec, requests: 12, errors: 2", st.String())
}

func TestSessionStatsRate(t *testing.T) {
	var ss sessionStats
	ss.reset(time.Now().Add(-10 * time.Second))
	for i := 0; i < 5; i++ {
		ss.record(true)
	}

	snap := ss.snapshot(1)
	require.InDelta(t, 0.5, snap.Rate, 0.05)
	require.Equal(t, uint64(5), snap.Count)
	require.Equal(t, uint64(0), snap.Errors)
}

func TestSessionStatsErrorsSurviveReset(t *testing.T) {
	var ss sessionStats
	ss.reset(time.Now())
	ss.record(false)
	ss.record(true)

	snap := ss.resetSnapshot(0, time.Now())
	require.Equal(t, uint64(2), snap.Count)
	require.Equal(t, uint64(1), snap.Errors)

	after := ss.snapshot(0)
	require.Equal(t, uint64(0), after.Count)
	require.Equal(t, uint64(1), after.Errors)
}
