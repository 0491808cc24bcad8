// Package ratelimit provides rate limiting middleware using token bucket algorithm.
package ratelimit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mandalnilabja/pixelrelay/internal/clientinfo"
)

// refillWindow is the time an empty bucket takes to refill completely. A
// bucket idle this long is indistinguishable from a new one.
const refillWindow = time.Minute

// bucket represents a token bucket for rate limiting.
type bucket struct {
	tokens   float64
	lastFill time.Time
	mu       sync.Mutex
}

// Limiter tracks per-client token buckets refilled over one minute.
type Limiter struct {
	perMinute int
	buckets   sync.Map // map[clientIP]*bucket
	now       func() time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// New creates a limiter allowing perMinute requests per client.
// Zero or less disables limiting.
func New(perMinute int) *Limiter {
	return &Limiter{perMinute: perMinute, now: time.Now}
}

// Allow checks if a request from key is allowed under the rate limit.
func (l *Limiter) Allow(key string) bool {
	if l == nil || l.perMinute <= 0 {
		return true
	}
	limit := float64(l.perMinute)
	now := l.now()
	l.sweep(now)

	val, _ := l.buckets.LoadOrStore(key, &bucket{
		tokens:   limit,
		lastFill: now,
	})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	// Refill tokens based on elapsed time
	elapsed := now.Sub(b.lastFill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * limit / refillWindow.Seconds()
		if b.tokens > limit {
			b.tokens = limit
		}
		b.lastFill = now
	}

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

// sweep drops buckets idle for a full refill window, at most once per window.
func (l *Limiter) sweep(now time.Time) {
	l.sweepMu.Lock()
	if now.Sub(l.lastSweep) < refillWindow {
		l.sweepMu.Unlock()
		return
	}
	l.lastSweep = now
	l.sweepMu.Unlock()

	l.buckets.Range(func(key, val any) bool {
		b := val.(*bucket)
		b.mu.Lock()
		idle := now.Sub(b.lastFill) >= refillWindow
		b.mu.Unlock()
		if idle {
			l.buckets.CompareAndDelete(key, val)
		}
		return true
	})
}

// Len reports the number of tracked clients.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	n := 0
	l.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Middleware limits requests by the transport address of the client.
// With trustProxy set it keys on the address the nearest proxy appended to
// X-Forwarded-For instead; enable it only behind such a proxy.
func Middleware(limiter *Limiter, trustProxy bool) func(http.Handler) http.Handler {
	key := clientinfo.RemoteIP
	if trustProxy {
		key = clientinfo.ProxiedIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(key(r)) {
				writeTooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeTooManyRequests writes a JSON 429 response.
func writeTooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(refillWindow.Seconds())))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Too many requests",
	})
}
