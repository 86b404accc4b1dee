package common

import (
	"net/http"
	"strconv"
	"time"

	"docrequest/internal/domain"

	"github.com/gin-gonic/gin"
)

// RateLimit applies policy per client address. A nil limiter or a
// non-positive limit disables the check.
func RateLimit(limiter domain.RateLimiter, policy domain.RateLimitPolicy, failClosed bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || policy.Limit <= 0 {
			c.Next()
			return
		}
		key := policy.Key(c.FullPath(), c.ClientIP())
		decision, err := limiter.Allow(c.Request.Context(), key, policy.Limit, policy.Window)
		if err != nil {
			if failClosed {
				WriteErrorCode(c, http.StatusTooManyRequests, "RATE_LIMIT_UNAVAILABLE", "rate limiter unavailable")
				return
			}
			c.Next()
			return
		}
		writeRateLimitHeaders(c, decision)
		if !decision.Allowed {
			WriteErrorCode(c, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
		if !decision.Allowed {
			retryAfter := int64(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
		}
	}
}
