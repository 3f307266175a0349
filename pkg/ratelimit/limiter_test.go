package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_BurstThenDeny(t *testing.T) {
	tb := NewTokenBucket(5, 0.001)

	for i := 0; i < 5; i++ {
		assert.True(t, tb.Allow(), "request %d within burst", i+1)
	}
	assert.False(t, tb.Allow(), "burst exhausted")
}

func TestTokenBucket_Refill(t *testing.T) {
	tb := NewTokenBucket(3, 100.0)

	for i := 0; i < 3; i++ {
		require.True(t, tb.Allow())
	}
	require.False(t, tb.Allow())

	time.Sleep(50 * time.Millisecond)
	assert.True(t, tb.Allow(), "tokens refilled after waiting")
}

func TestTokenBucket_Reset(t *testing.T) {
	tb := NewTokenBucket(2, 0.001)
	tb.Allow()
	tb.Allow()
	require.False(t, tb.Allow())

	tb.Reset()
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
}

func TestLimiter_KeysIndependent(t *testing.T) {
	l := NewLimiter(1, 0.001, 0)

	assert.True(t, l.Allow("198.51.100.1"))
	assert.False(t, l.Allow("198.51.100.1"))
	assert.True(t, l.Allow("198.51.100.2"), "a drained key must not starve others")
}

func TestLimiter_Reset(t *testing.T) {
	l := NewLimiter(1, 0.001, 0)
	require.True(t, l.Allow("198.51.100.1"))
	require.False(t, l.Allow("198.51.100.1"))

	l.Reset("198.51.100.1")
	assert.True(t, l.Allow("198.51.100.1"))
}

func TestLimiter_SweepDuringTraffic(t *testing.T) {
	l := NewLimiter(1000, 1000.0, 5*time.Millisecond)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			key := "198.51.100." + string(rune('1'+g))
			deadline := time.Now().Add(40 * time.Millisecond)
			for time.Now().Before(deadline) {
				l.Allow(key)
			}
		}(g)
	}
	wg.Wait()

	assert.True(t, l.Allow("198.51.100.9"), "limiter keeps serving after sweeps")
}

func TestPerIP_Middleware(t *testing.T) {
	limiter := NewLimiter(2, 0.001, 0)
	handler := PerIP(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remoteAddr, forwardedFor string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remoteAddr
		if forwardedFor != "" {
			req.Header.Set("X-Forwarded-For", forwardedFor)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("203.0.113.10:51000", "").Code)
	assert.Equal(t, http.StatusOK, do("203.0.113.10:51001", "").Code)

	rec := do("203.0.113.10:51002", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusOK, do("203.0.113.99:51000", "").Code)

	// Forwarded clients are keyed on the first proxy hop.
	assert.Equal(t, http.StatusOK, do("10.0.0.1:51000", "192.0.2.7, 10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:51000", "192.0.2.7").Code)
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.2:51000", "192.0.2.7").Code)
}
