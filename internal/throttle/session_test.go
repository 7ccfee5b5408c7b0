package throttle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueLen(t *testing.T) {
	require.Equal(t, 1, queueLen(0.3))
	require.Equal(t, 1, queueLen(1))
	require.Equal(t, 1, queueLen(20))
	require.Equal(t, 4, queueLen(21))
	require.Equal(t, 4, queueLen(50))
	require.Equal(t, 5, queueLen(100))
}

func TestNewSessionRejectsNegativeRate(t *testing.T) {
	_, err := NewSession(Config{RateLimit: -1})
	require.Error(t, err)
}

func TestNewSessionRejectsInvalidFilter(t *testing.T) {
	_, err := NewSession(Config{
		RateLimit: 1,
		Filters:   []Filter{{Method: "FETCH"}},
	})
	require.Error(t, err)
}

func TestUnlimitedSessionNeverBlocks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := newTestSession(t, Config{})

	start := time.Now()
	for i := 0; i < 20; i++ {
		resp, err := s.Get(context.Background(), server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}
	require.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, uint64(20), s.Stats().Count)
}

func TestThrottledSessionPacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := newTestSession(t, Config{RateLimit: 10})

	start := time.Now()
	for i := 0; i < 4; i++ {
		resp, err := s.Get(context.Background(), server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}

	// Four admissions at 10 req/s: the first token is available right
	// away, the rest arrive every 100ms.
	require.GreaterOrEqual(t, time.Since(start), 250*time.Millisecond)
}

func TestExemptRequestsBypassQueue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := newTestSession(t, Config{
		RateLimit:     0.1,
		Filters:       []Filter{{Prefix: server.URL}},
		LimitFiltered: false,
	})

	start := time.Now()
	for i := 0; i < 5; i++ {
		resp, err := s.Get(context.Background(), server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestErrorResponsesCounted(t *testing.T) {
	var status int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer server.Close()

	s := newTestSession(t, Config{})

	status = http.StatusOK
	resp, err := s.Get(context.Background(), server.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	status = http.StatusInternalServerError
	resp, err = s.Get(context.Background(), server.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	stats := s.Stats()
	require.Equal(t, uint64(2), stats.Count)
	require.Equal(t, uint64(1), stats.Errors)
}

func TestTransportErrorsPropagateUncounted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	s := newTestSession(t, Config{})

	_, err := s.Get(context.Background(), server.URL)
	require.Error(t, err)

	stats := s.Stats()
	require.Equal(t, uint64(0), stats.Count)
	require.Equal(t, uint64(0), stats.Errors)
}

func TestResetCountersReturnsSnapshot(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := newTestSession(t, Config{})

	for i := 0; i < 3; i++ {
		resp, err := s.Get(context.Background(), server.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}

	snap := s.ResetCounters()
	require.Equal(t, uint64(3), snap.Count)
	require.Equal(t, uint64(0), snap.Errors)
	require.Equal(t, uint64(0), s.Stats().Count)
}

func TestAdmissionQueueCapacity(t *testing.T) {
	s := newTestSession(t, Config{RateLimit: 50})

	s.mu.Lock()
	capacity := cap(s.tokens)
	s.mu.Unlock()

	require.Equal(t, 4, capacity)
}

func TestSetRateLimitRestartsFiller(t *testing.T) {
	s := newTestSession(t, Config{})

	s.mu.Lock()
	require.Nil(t, s.tokens)
	s.mu.Unlock()

	require.NoError(t, s.SetRateLimit(100))
	require.Equal(t, float64(100), s.RateLimit())

	s.mu.Lock()
	require.Equal(t, 5, cap(s.tokens))
	s.mu.Unlock()

	require.NoError(t, s.SetRateLimit(0))
	s.mu.Lock()
	require.Nil(t, s.tokens)
	s.mu.Unlock()

	require.Error(t, s.SetRateLimit(-5))
}

func TestDoHonorsRequestContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// One token is prefilled; the second admission is 100s away.
	s := newTestSession(t, Config{RateLimit: 0.01})

	resp, err := s.Get(context.Background(), server.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = s.Get(ctx, server.URL)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, uint64(1), s.Stats().Count)
}

func TestCloseInterruptsSleepingFiller(t *testing.T) {
	// At 0.1 req/s the filler sleeps 10s between tokens; Close must not
	// wait for the sleep to elapse.
	s, err := NewSession(Config{RateLimit: 0.1})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		_ = s.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("close did not complete within grace period")
	}
}

func TestConcurrentRequestsShareTokenStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	s := newTestSession(t, Config{RateLimit: 20})

	var wg sync.WaitGroup
	start := time.Now()
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := s.Get(context.Background(), server.URL)
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	// Six admissions at 20 req/s: at least 200ms after the prefilled token.
	require.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	require.Equal(t, uint64(6), s.Stats().Count)
}
