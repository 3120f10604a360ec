package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterTake(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 3, Window: time.Minute})
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, _, allowed := l.take("a", base.Add(time.Duration(i)*time.Second))
		assert.True(t, allowed, "request %d should pass", i)
	}

	_, resetAt, allowed := l.take("a", base.Add(3*time.Second))
	assert.False(t, allowed)
	assert.False(t, resetAt.IsZero())

	// A different key has its own budget.
	_, _, allowed = l.take("b", base.Add(3*time.Second))
	assert.True(t, allowed)
}

func TestLimiterSlidingWindow(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 10, Window: time.Minute})
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	// Exhaust the first window.
	for i := 0; i < 10; i++ {
		_, _, allowed := l.take("k", base)
		require.True(t, allowed)
	}

	// Just into the next window the previous one still weighs heavily.
	_, _, allowed := l.take("k", base.Add(time.Minute+time.Second))
	assert.False(t, allowed)

	// Halfway through, enough of that weight has decayed to admit again.
	_, _, allowed = l.take("k", base.Add(time.Minute+30*time.Second))
	assert.True(t, allowed)

	// Two full windows later the budget is fresh.
	_, _, allowed = l.take("k", base.Add(3*time.Minute))
	assert.True(t, allowed)
}

func TestLimiterEvict(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 5, Window: time.Minute})
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	l.take("stale", base)
	l.take("fresh", base.Add(2*time.Minute))
	l.evict(base.Add(2 * time.Minute))

	assert.NotContains(t, l.windows, "stale")
	assert.Contains(t, l.windows, "fresh")
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := RateLimit(ctx, RateLimitConfig{
		Max:    2,
		Window: time.Minute,
		KeyFunc: func(*http.Request) string {
			return "fixed"
		},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	assert.Equal(t, "10.0.0.1", clientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", clientIP(r))

	r.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", clientIP(r))
}
