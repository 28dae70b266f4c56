package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the sliding window rate limiter.
type RateLimitConfig struct {
	// Max is the number of requests allowed per window and key.
	Max int
	// Window is the sliding window duration.
	Window time.Duration
	// KeyFunc derives the limiter key from a request. When nil, the client
	// IP is used. For the storefront API prefer SessionKeyFunc so that
	// shoppers behind a shared NAT do not throttle each other.
	KeyFunc func(*http.Request) string
}

// SessionKeyFunc keys the limiter on the session cookie named cookieName,
// falling back to the client IP for requests that carry no session yet.
func SessionKeyFunc(cookieName string) func(*http.Request) string {
	return func(r *http.Request) string {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return "sid:" + c.Value
		}
		return "ip:" + clientIP(r)
	}
}

// window holds per-key counters for two adjacent fixed windows; the sliding
// count is interpolated between them.
type window struct {
	prevCount float64
	prevStart time.Time
	currCount float64
	currStart time.Time
}

type rateLimiter struct {
	cfg     RateLimitConfig
	mu      sync.Mutex
	windows map[string]*window
}

func newRateLimiter(cfg RateLimitConfig) *rateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(r *http.Request) string { return clientIP(r) }
	}
	return &rateLimiter{
		cfg:     cfg,
		windows: make(map[string]*window),
	}
}

// allow reports whether the request identified by key fits the limit,
// together with the remaining budget and the current window's reset time.
func (rl *rateLimiter) allow(key string, now time.Time) (remaining int, resetAt time.Time, allowed bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	wnd, ok := rl.windows[key]
	if !ok {
		wnd = &window{currStart: now}
		rl.windows[key] = wnd
	}

	if now.Sub(wnd.currStart) >= rl.cfg.Window {
		wnd.prevCount = wnd.currCount
		wnd.prevStart = wnd.currStart
		wnd.currCount = 0
		wnd.currStart = now.Truncate(rl.cfg.Window)
		if now.Sub(wnd.prevStart) >= 2*rl.cfg.Window {
			wnd.prevCount = 0
		}
	}

	// Weight the previous window by its remaining overlap with the sliding
	// window ending now.
	overlap := 1.0 - now.Sub(wnd.currStart).Seconds()/rl.cfg.Window.Seconds()
	if overlap < 0 {
		overlap = 0
	}
	effective := wnd.prevCount*overlap + wnd.currCount
	resetAt = wnd.currStart.Add(rl.cfg.Window)

	if effective >= float64(rl.cfg.Max) {
		return 0, resetAt, false
	}

	wnd.currCount++
	remaining = int(float64(rl.cfg.Max) - effective - 1)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, resetAt, true
}

func (rl *rateLimiter) evictStale(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, wnd := range rl.windows {
		if now.Sub(wnd.currStart) >= 2*rl.cfg.Window {
			delete(rl.windows, key)
		}
	}
}

// RateLimit enforces a per-key sliding window limit. Rejected requests get a
// 429 with the API's JSON error shape; every response carries the
// X-RateLimit-Limit, X-RateLimit-Remaining, and X-RateLimit-Reset headers.
//
// The limiter state grows with the key cardinality and is never evicted; use
// RateLimitWithCleanup in long-running servers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return newRateLimiter(cfg).middleware()
}

// RateLimitWithCleanup is RateLimit plus a background goroutine that evicts
// idle keys every two windows. The goroutine stops when ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	rl := newRateLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * rl.cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rl.evictStale(now)
			}
		}
	}()
	return rl.middleware()
}

func (rl *rateLimiter) middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, allowed := rl.allow(rl.cfg.KeyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !allowed {
				retryAfter := time.Until(resetAt)
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":429,"message":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the originating client address, preferring proxy headers.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
