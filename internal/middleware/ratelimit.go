package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"notesrelay/internal/http/respond"
)

type bucket struct {
	count int
	until time.Time
}

// RateLimitOptions configures a fixed-window limiter.
type RateLimitOptions struct {
	Limit   int
	Window  time.Duration
	Code    string
	Message string
	// Key picks the bucket for a request; client IP when nil.
	Key func(r *http.Request) string
}

type limiter struct {
	opts      RateLimitOptions
	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
	now       func() time.Time
}

func newLimiter(opts RateLimitOptions) *limiter {
	if opts.Key == nil {
		opts.Key = ClientIP
	}
	if opts.Code == "" {
		opts.Code = "RATE_LIMIT_EXCEEDED"
	}
	if opts.Message == "" {
		opts.Message = "Too many requests, please try again later."
	}
	return &limiter{opts: opts, buckets: make(map[string]*bucket), now: time.Now}
}

// allow counts one request against key and reports the remaining budget.
func (l *limiter) allow(key string) (ok bool, remaining int, reset time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.After(l.nextSweep) {
		for k, b := range l.buckets {
			if now.After(b.until) {
				delete(l.buckets, k)
			}
		}
		l.nextSweep = now.Add(l.opts.Window)
	}
	b, found := l.buckets[key]
	if !found || now.After(b.until) {
		b = &bucket{until: now.Add(l.opts.Window)}
		l.buckets[key] = b
	}
	if b.count >= l.opts.Limit {
		return false, 0, b.until
	}
	b.count++
	return true, l.opts.Limit - b.count, b.until
}

func (l *limiter) handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, remaining, reset := l.allow(l.opts.Key(r))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.opts.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			retry := int(reset.Sub(l.now()).Round(time.Second) / time.Second)
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			respond.Error(w, http.StatusTooManyRequests, l.opts.Code, l.opts.Message, map[string]any{
				"retryAfterSeconds": retry,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit limits requests per client IP.
func RateLimit(limit int, per time.Duration) func(http.Handler) http.Handler {
	return KeyedRateLimit(RateLimitOptions{Limit: limit, Window: per})
}

// KeyedRateLimit limits requests per key with a custom rejection code.
func KeyedRateLimit(opts RateLimitOptions) func(http.Handler) http.Handler {
	return newLimiter(opts).handler
}

// APIKeyOrIP keys buckets by the presented shared secret, falling back to the client IP.
func APIKeyOrIP(r *http.Request) string {
	if key := APIKeyFromRequest(r); key != "" {
		return "key:" + key
	}
	return "ip:" + ClientIP(r)
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		if net.ParseIP(host) != nil {
			return host
		}
	} else if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}

	return r.RemoteAddr
}
