package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"bountyhub/internal/infrastructure/ratelimit"
	"bountyhub/pkg/logger"
)

// RateLimitMiddleware throttles write-heavy dispute actions per actor.
type RateLimitMiddleware struct {
	limiter *ratelimit.RateLimiter
}

func NewRateLimitMiddleware(limiter *ratelimit.RateLimiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
	}
}

// Limit returns echo middleware enforcing the named action's bucket. It must
// run after Authenticate so the actor id is known.
func (m *RateLimitMiddleware) Limit(action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			uid, ok := c.Get("uid").(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			if allowed, wait := m.limiter.Allow(uid, action); !allowed {
				logger.Warn("Rate limit hit: actor=%s action=%s retry in %v", uid, action, wait)
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "Rate limit exceeded",
					"retry_after": int(wait / time.Second),
				})
			}

			return next(c)
		}
	}
}
