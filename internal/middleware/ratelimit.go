package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/niolikon/taskboard/internal/apperr"
	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/cache"
	"github.com/niolikon/taskboard/internal/metrics"
)

// ErrRateLimited is returned to callers over their request budget.
var ErrRateLimited = apperr.TooManyRequests("Rate limit exceeded")

// RateLimiter consumes request budget from token buckets.
type RateLimiter interface {
	CheckUserRateLimit(ctx context.Context, userID string, ratePerMinute, burst int) (*cache.RateLimitResult, error)
	CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*cache.RateLimitResult, error)
}

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	Logger  *slog.Logger
	Limiter RateLimiter
	Metrics metrics.Recorder
	Advice  *Advice
	Enabled bool

	// Per authenticated user, on the resource routes.
	RequestsPerMinute int
	Burst             int

	// Per client address, on the credential endpoints.
	AuthRPS   int
	AuthBurst int

	// TrustedProxies are the peers allowed to report the client address through
	// X-Forwarded-For or X-Real-IP. With none, the connection address is used.
	TrustedProxies []netip.Prefix
}

func (cfg *RateLimitConfig) defaults() {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Advice == nil {
		cfg.Advice = NewAdvice(cfg.Logger)
	}
}

// RateLimitUser limits requests per authenticated user. It must run after
// Authenticate. Limiter errors let the request through.
func RateLimitUser(cfg RateLimitConfig) func(http.Handler) http.Handler {
	cfg.defaults()
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || cfg.Limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := auth.UserIDFromContext(r.Context())
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			result, err := cfg.Limiter.CheckUserRateLimit(r.Context(), userID, cfg.RequestsPerMinute, cfg.Burst)
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("user_id", userID),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, cfg.RequestsPerMinute, result.Remaining, result.ResetAt)
			if !result.Allowed {
				cfg.limited(w, r, "user", result.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitIP limits requests per client address. Used on the credential
// endpoints to slow down password guessing.
func RateLimitIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	cfg.defaults()
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || cfg.Limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, cfg.TrustedProxies)

			result, err := cfg.Limiter.CheckIPRateLimit(r.Context(), ip, cfg.AuthRPS, cfg.AuthBurst)
			if err != nil {
				cfg.Logger.Error("IP rate limit check failed", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				cfg.limited(w, r, "ip", result.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (cfg RateLimitConfig) limited(w http.ResponseWriter, r *http.Request, kind string, retryAfter time.Duration) {
	cfg.Metrics.IncRateLimited()
	cfg.Logger.Warn("rate limit exceeded",
		slog.String("type", kind),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Int64("retry_after_seconds", int64(retryAfter.Seconds())),
		slog.String("request_id", GetRequestID(r.Context())),
	)
	w.Header().Set("Retry-After", strconv.Itoa(max(1, int(retryAfter.Seconds()))))
	cfg.Advice.WriteError(w, r, ErrRateLimited)
}

func setRateLimitHeaders(w http.ResponseWriter, limit int, remaining int64, resetAt time.Time) {
	if limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
	}
}

// clientIP returns the address the request came from. Forwarding headers are
// only read when the connection comes from a trusted proxy; X-Forwarded-For is
// walked from the right and the first hop that is not a trusted proxy wins.
func clientIP(r *http.Request, trusted []netip.Prefix) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		peer = host
	}
	if !isTrusted(peer, trusted) {
		return peer
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop != "" && !isTrusted(hop, trusted) {
				return hop
			}
		}
		if first := strings.TrimSpace(hops[0]); first != "" {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}

func isTrusted(ip string, trusted []netip.Prefix) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
