package core

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"gomeasure/internal/types"
)

// defaultRateLimitWindow and defaultRateLimitMax apply when the configuration
// does not set RATE_LIMIT_WINDOW / RATE_LIMIT_REQUESTS.
const (
	defaultRateLimitWindow = time.Minute
	defaultRateLimitMax    = 120
)

// RateLimit uses a backing store to enforce a per-client request budget.
//
// The middleware keys on the client IP resolved by ClientIPMiddleware and
// calls RateLimitStore.IncrementAndCheck to atomically increment the counter
// and check against the limit.
//
// If no RateLimitStore is configured (e.g., during tests), the middleware
// passes through without rate limiting.
//
// On every request (allowed or not), the middleware sets standard rate limit
// response headers:
//   - X-RateLimit-Limit: The maximum number of requests in the window.
//   - X-RateLimit-Remaining: The number of requests remaining.
//   - X-RateLimit-Reset: Unix timestamp when the window resets.
//
// When rate limited, the middleware also sets:
//   - Retry-After: Seconds until the rate limit window resets.
//
// The address search endpoint is the exception to the error envelope: its
// contract is a bare JSON array, so a throttled search receives 429 with [].
func (s *Server) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// If no rate limit store is configured, pass through.
		if s.RateLimitStore == nil {
			next.ServeHTTP(w, r)
			return
		}

		ip, ok := types.GetClientIP(r.Context())
		if !ok {
			ip = extractClientIP(r)
		}
		limit, window := s.rateLimitBudget()

		result, err := s.RateLimitStore.IncrementAndCheck(r.Context(), ip, limit, window)
		if err != nil {
			// On store errors, fail open: allow the request through but log
			// the error. This prevents a rate limit store outage from blocking
			// all API traffic.
			s.Logger.ErrorContext(r.Context(), "rate limit store error",
				slog.String("client_ip", ip),
				slog.String("error", err.Error()),
			)
			next.ServeHTTP(w, r)
			return
		}

		// Set rate limit headers on every response (allowed or denied).
		setRateLimitHeaders(w, limit, result)

		if !result.Allowed {
			s.Logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("client_ip", ip),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			// Set Retry-After header for 429 responses.
			retryAfter := int(time.Until(result.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

			if r.Method == http.MethodGet && r.URL.Path == "/v1/geocode" {
				JSON(w, r, http.StatusTooManyRequests, []types.AddressCandidate{})
				return
			}

			requestID := types.GetRequestID(r.Context())
			resp := APIErrorResponse{
				Error: ErrorDetail{
					Code:      string(types.ErrCodeRateLimit),
					Message:   "Rate limit exceeded. Please retry after the reset time.",
					RequestID: requestID,
				},
			}
			JSON(w, r, http.StatusTooManyRequests, resp)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitBudget returns the configured limit and window.
func (s *Server) rateLimitBudget() (int, time.Duration) {
	limit, window := defaultRateLimitMax, defaultRateLimitWindow
	if s.Config != nil {
		if s.Config.Security.RateLimitRequests > 0 {
			limit = s.Config.Security.RateLimitRequests
		}
		if s.Config.Security.RateLimitWindow > 0 {
			window = s.Config.Security.RateLimitWindow
		}
	}
	return limit, window
}

// setRateLimitHeaders writes the standard X-RateLimit-* headers to the response.
func setRateLimitHeaders(w http.ResponseWriter, limit int, result RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
