// ABOUTME: HTTP middleware for request logging and rate limiting
// ABOUTME: Rate limit rejections are written to the audit log

package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hikmaai-io/hikmaai-censor/internal/observability"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LoggingMiddleware logs each request with its status and duration.
// Health checks are not logged.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if strings.HasSuffix(r.URL.Path, "/health") {
				return
			}
			observability.LogWithContext(r.Context(), logger, slog.LevelInfo, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// RateLimiter applies one token bucket to every request it guards.
type RateLimiter struct {
	limiter *rate.Limiter
	limit   float64
	audit   *observability.AuditLogger
}

// NewRateLimiter allows perSecond sustained requests with the given burst.
// A burst below one is raised to one.
func NewRateLimiter(perSecond float64, burst int, audit *observability.AuditLogger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		limit:   perSecond,
		audit:   audit,
	}
}

// Middleware rejects requests over the limit with 429 Too Many Requests.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter.Allow() {
			if l.audit != nil {
				l.audit.LogRateLimitViolation(r.Context(), r.RemoteAddr, r.URL.Path, l.limit)
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
