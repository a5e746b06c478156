package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRateLimitCleanupInterval is how often inactive per-IP limiters are removed.
	DefaultRateLimitCleanupInterval = 5 * time.Minute

	// rateLimitIdleTTL is how long an IP's limiter survives without traffic.
	rateLimitIdleTTL = 10 * time.Minute
)

// ipLimiter pairs a token bucket with its last access time for cleanup.
type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter implements per-IP request rate limiting for the public HTTP
// endpoints. Each client IP gets its own token bucket; inactive buckets are
// removed by a background cleanup goroutine.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*ipLimiter

	rps        rate.Limit
	burst      int
	trustProxy bool
	logger     *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewRateLimiter creates a new rate limiter allowing rps requests per second
// with the given burst per client IP. trustProxy controls whether
// X-Forwarded-For / X-Real-IP headers are honored; enable only behind a
// trusted reverse proxy.
func NewRateLimiter(rps float64, burst int, trustProxy bool, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}

	rl := &RateLimiter{
		limiters:   make(map[string]*ipLimiter),
		rps:        rate.Limit(rps),
		burst:      burst,
		trustProxy: trustProxy,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow reports whether a request from the given IP should be admitted.
func (rl *RateLimiter) Allow(ip string) bool {
	return rl.getOrCreateLimiter(ip).Allow()
}

// Count returns the number of tracked client IPs, for tests and metrics.
func (rl *RateLimiter) Count() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.limiters)
}

// Stop terminates the background cleanup goroutine. Idempotent.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Middleware wraps next with per-IP rate limiting. Rejected requests get a
// 429 with a Retry-After header.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, rl.trustProxy)

		if !rl.Allow(ip) {
			rl.logger.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			writeRateLimitResponse(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getOrCreateLimiter returns the token bucket for an IP, creating it on first use.
func (rl *RateLimiter) getOrCreateLimiter(ip string) *rate.Limiter {
	rl.mu.RLock()
	il, exists := rl.limiters[ip]
	rl.mu.RUnlock()

	if exists {
		rl.mu.Lock()
		il.lastAccess = time.Now()
		rl.mu.Unlock()
		return il.limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring the write lock
	if il, exists := rl.limiters[ip]; exists {
		il.lastAccess = time.Now()
		return il.limiter
	}

	limiter := rate.NewLimiter(rl.rps, rl.burst)
	rl.limiters[ip] = &ipLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}

	return limiter
}

// cleanupLoop periodically removes limiters for IPs with no recent traffic.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(DefaultRateLimitCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	for ip, il := range rl.limiters {
		if now.Sub(il.lastAccess) > rateLimitIdleTTL {
			delete(rl.limiters, ip)
		}
	}
	rl.mu.Unlock()
}

// clientIP extracts the client IP address from the request.
// trustProxy: if true, trust X-Forwarded-For and X-Real-IP headers
// (only safe behind a trusted proxy).
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Take the first IP if multiple
			for i := 0; i < len(xff); i++ {
				if xff[i] == ',' {
					return xff[:i]
				}
			}
			return xff
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return xri
		}
	}

	// RemoteAddr is "IP:port", extract just the IP
	return stripPort(r.RemoteAddr)
}

// stripPort removes the trailing ":port" from "IP:port" addresses.
func stripPort(addr string) string {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

// writeRateLimitResponse writes a 429 Too Many Requests response.
func writeRateLimitResponse(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             "rate_limit_exceeded",
		"error_description": "Too many requests. Please try again later.",
	})
}
