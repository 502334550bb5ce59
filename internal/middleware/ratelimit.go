package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyFunc extracts the rate-limiting key from a request, e.g. a path
// segment identifying the caller.
type KeyFunc func(*http.Request) string

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a token-bucket limit per key: burst requests, then
// one more every period/burst. Idle keys are evicted in the background.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter

	keyFn  KeyFunc
	limit  rate.Limit
	burst  int
	maxAge time.Duration
}

func NewRateLimiter(keyFn KeyFunc, burst int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: map[string]*keyedLimiter{},
		keyFn:    keyFn,
		limit:    rate.Every(period / time.Duration(burst)),
		burst:    burst,
		maxAge:   2 * period,
	}

	go rl.evictLoop()

	return rl
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &keyedLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter.Allow()
}

func (rl *RateLimiter) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-rl.maxAge)

		rl.mu.Lock()
		for key, entry := range rl.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(rl.limiters, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Handler wraps next with the limit; rejected requests get a JSON 429.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(rl.keyFn(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":"rate_limit","message":"Too Many Requests"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
