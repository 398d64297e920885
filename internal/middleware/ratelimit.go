package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/errors"
	"github.com/Hol1kgmg/Mythologia-ASB-Archive-sub000/internal/ratelimit"
)

// RateLimitMiddleware applies a per-IP attempt budget to everything under its
// subtree. Limiter failures refuse the request rather than waving it through.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	policy  ratelimit.Policy
	class   string
}

func NewRateLimitMiddleware(limiter ratelimit.Limiter, policy ratelimit.Policy, class string) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, policy: policy, class: class}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		result, err := m.limiter.Record(r.Context(), ratelimit.Key(m.class, ip))
		if err != nil {
			log.Error().Err(err).Str("ip", ip).Msg("rate limit middleware: limiter error, denying request for safety")
			writeError(w, apperrors.RateLimited())
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.policy.MaxAttempts))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if result.Blocked {
			secondsLeft := int(time.Until(result.ResetAt).Seconds()) + 1
			if secondsLeft < 1 {
				secondsLeft = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secondsLeft))
			log.Warn().Str("ip", ip).Str("class", m.class).Msg("rate limit exceeded")
			writeError(w, apperrors.RateLimited())
			return
		}

		next.ServeHTTP(w, r)
	})
}
