package rest

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rps float64, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(rps, burst)
	rl.now = clock.now
	rl.lastSweep = clock.t
	return rl, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, _ := newTestLimiter(1, 5)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("a"), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.Allow("a"), "6th request should be denied")
	assert.True(t, rl.Allow("b"), "other clients have their own bucket")
}

func TestRateLimiter_Refill(t *testing.T) {
	rl, clock := newTestLimiter(10, 10)
	for i := 0; i < 10; i++ {
		rl.Allow("a")
	}
	assert.False(t, rl.Allow("a"))

	clock.advance(100 * time.Millisecond)
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
}

func TestRateLimiter_MaxTokensCapped(t *testing.T) {
	rl, clock := newTestLimiter(5, 5)
	rl.Allow("a")
	clock.advance(10 * time.Second)

	allowed := 0
	for i := 0; i < 20; i++ {
		if rl.Allow("a") {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)
}

func TestRateLimiter_SweepsIdleBuckets(t *testing.T) {
	rl, clock := newTestLimiter(1, 1)
	rl.Allow("a")
	rl.Allow("b")

	clock.advance(rl.idleTTL + time.Second)
	rl.Allow("c")

	assert.Len(t, rl.buckets, 1)
	assert.Contains(t, rl.buckets, "c")
}

func TestRateLimitMiddleware_Rejects(t *testing.T) {
	rl, _ := newTestLimiter(1, 1)
	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req.RemoteAddr = "203.0.113.7:6666"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}
