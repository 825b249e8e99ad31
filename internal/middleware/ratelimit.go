package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/forgo/accord/internal/model"
)

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	perMin   int
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimitConfig holds rate limiter configuration
type RateLimitConfig struct {
	PerMinute int           // Sustained requests per minute (default 30)
	Burst     int           // Max burst (default 10)
	Idle      time.Duration // Buckets unused this long are dropped (default 10 minutes)
}

// NewRateLimiter creates a new rate limiter and starts its cleanup loop
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 30
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 10 * time.Minute
	}

	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		perMin:   cfg.PerMinute,
		limit:    rate.Limit(float64(cfg.PerMinute) / 60),
		burst:    cfg.Burst,
		idle:     cfg.Idle,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop stops the rate limiter cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopChan) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupIdle()
		case <-rl.stopChan:
			return
		}
	}
}

func (rl *RateLimiter) cleanupIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	for key, e := range rl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// Allow reports whether a request for key may proceed. When it may not,
// retryAfter is how long until a token is available.
func (rl *RateLimiter) Allow(key string) (allowed bool, remaining int, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now

	r := e.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, 0, delay
	}
	return true, int(math.Max(0, math.Floor(e.limiter.TokensAt(now)))), 0
}

// RateLimit returns a middleware that limits requests per acting
// partnership, falling back to the remote address
func RateLimit(limiter *RateLimiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetPartnershipID(r.Context())
			if key == "" {
				key = r.RemoteAddr
			}

			allowed, remaining, retryAfter := limiter.Allow(key)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.perMin))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))

				model.NewRateLimitError(seconds).WriteJSON(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
