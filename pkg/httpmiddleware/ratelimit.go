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
	// Max is the number of requests allowed per window.
	Max    int
	Window time.Duration
	// KeyFunc groups requests. Defaults to ClientIP.
	KeyFunc func(*http.Request) string
}

// window holds the counts of the current and previous fixed windows. The
// previous count is weighted by how much it overlaps the sliding window.
type window struct {
	prev      float64
	curr      float64
	currStart time.Time
}

type limiter struct {
	max     int
	size    time.Duration
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	return &limiter{
		max:     cfg.Max,
		size:    cfg.Window,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

// take records a request for key. It reports whether the request is allowed,
// how many remain and when the current window ends.
func (l *limiter) take(key string) (ok bool, remaining int, reset time.Time) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, found := l.windows[key]
	if !found {
		w = &window{currStart: now.Truncate(l.size)}
		l.windows[key] = w
	}
	if elapsed := now.Sub(w.currStart); elapsed >= l.size {
		if elapsed >= 2*l.size {
			w.prev = 0
		} else {
			w.prev = w.curr
		}
		w.curr = 0
		w.currStart = now.Truncate(l.size)
	}

	overlap := 1 - now.Sub(w.currStart).Seconds()/l.size.Seconds()
	count := w.prev*math.Max(overlap, 0) + w.curr
	reset = w.currStart.Add(l.size)
	if count >= float64(l.max) {
		return false, 0, reset
	}
	w.curr++
	return true, max(int(float64(l.max)-count-1), 0), reset
}

// sweep drops keys idle for two windows.
func (l *limiter) sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, w := range l.windows {
		if now.Sub(w.currStart) >= 2*l.size {
			delete(l.windows, key)
		}
	}
}

// RateLimit enforces a per-key sliding window limit. Rejected requests get
// 429 with a JSON body. Every response carries X-RateLimit-* headers.
func RateLimit(cfg RateLimitConfig) Middleware {
	return rateLimit(newLimiter(cfg), cfg.KeyFunc)
}

// RateLimitWithCleanup is RateLimit plus a goroutine that evicts idle keys
// every two windows until ctx is done.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()
	return rateLimit(l, cfg.KeyFunc)
}

func rateLimit(l *limiter, key func(*http.Request) string) Middleware {
	if key == nil {
		key = ClientIP
	}
	limit := strconv.Itoa(l.max)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, reset := l.take(key(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			if !ok {
				wait := max(reset.Sub(l.now()), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by the first X-Forwarded-For hop, then X-Real-IP,
// then the remote address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
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

// HeaderOrIP keys requests by the given header, falling back to ClientIP
// when it is absent. The hub limits per cart session this way.
func HeaderOrIP(header string) func(*http.Request) string {
	return func(r *http.Request) string {
		if v := r.Header.Get(header); v != "" {
			return header + ":" + v
		}
		return ClientIP(r)
	}
}
