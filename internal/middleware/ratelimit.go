package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a simple in-memory sliding-window rate limiter keyed by an
// arbitrary string (typically the client IP).
type RateLimiter struct {
	mu      sync.Mutex
	seen    map[string][]time.Time
	window  time.Duration
	maxReqs int
}

// NewRateLimiter creates a rate limiter allowing maxReqs requests per window.
func NewRateLimiter(window time.Duration, maxReqs int) *RateLimiter {
	rl := &RateLimiter{
		seen:    make(map[string][]time.Time),
		window:  window,
		maxReqs: maxReqs,
	}
	go rl.cleanup()
	return rl
}

// Allow records a request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.window)
	kept := rl.seen[key][:0]
	for _, t := range rl.seen[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= rl.maxReqs {
		rl.seen[key] = kept
		return false
	}
	rl.seen[key] = append(kept, time.Now())
	return true
}

// cleanup periodically drops idle keys so the map does not grow unbounded.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.window)
		for key, times := range rl.seen {
			live := false
			for _, t := range times {
				if t.After(cutoff) {
					live = true
					break
				}
			}
			if !live {
				delete(rl.seen, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit wraps a handler, rejecting requests over the limit with 429.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the caller's IP, preferring X-Forwarded-For when present.
// The port is stripped from RemoteAddr so all connections from one host share
// a bucket.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
