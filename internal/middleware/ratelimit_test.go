package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

// newTestLimiter builds a limiter with a pinned clock and no cleanup goroutine
func newTestLimiter(perMinute, burst int, at *time.Time) *RateLimiter {
	rl := NewRateLimiter(RateLimitConfig{PerMinute: perMinute, Burst: burst, Idle: time.Hour})
	rl.Stop()
	rl.now = func() time.Time { return *at }
	return rl
}

func TestRateLimiter_BurstThenDeny(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rl := newTestLimiter(60, 3, &now)

	for i := 0; i < 3; i++ {
		allowed, remaining, _ := rl.Allow("partnership:alpha")
		if !allowed {
			t.Fatalf("request %d: expected allowed", i+1)
		}
		if remaining != 2-i {
			t.Errorf("request %d: expected remaining %d, got %d", i+1, 2-i, remaining)
		}
	}

	allowed, _, retryAfter := rl.Allow("partnership:alpha")
	if allowed {
		t.Fatal("expected fourth request to be denied")
	}
	if retryAfter <= 0 || retryAfter > time.Second {
		t.Errorf("expected retry within a second at 60/min, got %v", retryAfter)
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rl := newTestLimiter(60, 1, &now)

	if ok, _, _ := rl.Allow("k"); !ok {
		t.Fatal("expected first request allowed")
	}
	if ok, _, _ := rl.Allow("k"); ok {
		t.Fatal("expected second request denied")
	}

	now = now.Add(time.Second)
	if ok, _, _ := rl.Allow("k"); !ok {
		t.Error("expected a token after one second")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rl := newTestLimiter(60, 1, &now)

	if ok, _, _ := rl.Allow("alpha"); !ok {
		t.Fatal("expected alpha allowed")
	}
	if ok, _, _ := rl.Allow("bravo"); !ok {
		t.Error("expected bravo to have its own bucket")
	}
}

func TestRateLimiter_CleanupDropsIdleBuckets(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rl := newTestLimiter(60, 1, &now)
	rl.Allow("alpha")

	now = now.Add(2 * time.Hour)
	rl.cleanupIdle()

	rl.mu.Lock()
	n := len(rl.limiters)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("expected idle bucket to be dropped, %d remain", n)
	}
}

func TestRateLimit_Middleware_KeysByPartnership(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	rl := newTestLimiter(30, 1, &now)
	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	request := func(partnershipID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/signals", nil)
		req = req.WithContext(context.WithValue(req.Context(), PartnershipIDKey, partnershipID))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	first := request("partnership:alpha")
	if first.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", first.Code)
	}
	if first.Header().Get("X-RateLimit-Limit") != "30" {
		t.Errorf("expected limit header 30, got %q", first.Header().Get("X-RateLimit-Limit"))
	}

	denied := request("partnership:alpha")
	if denied.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", denied.Code)
	}
	retry, err := strconv.Atoi(denied.Header().Get("Retry-After"))
	if err != nil || retry < 1 || retry > 2 {
		t.Errorf("expected Retry-After of 1-2 seconds at 30/min, got %q", denied.Header().Get("Retry-After"))
	}

	if other := request("partnership:bravo"); other.Code != http.StatusAccepted {
		t.Errorf("expected other partnership to pass, got %d", other.Code)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(RateLimitConfig{})
	rl.Stop()
	rl.Stop()
}
