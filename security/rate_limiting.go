package security

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles purchase attempts so a stuck client retrying
// the buy button cannot flood the booking backend with orders.
type RateLimiter struct {
	redis *redis.Client

	// maxAttempts per window, keyed by session or client IP.
	maxAttempts int64
	window      time.Duration
}

func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	return &RateLimiter{
		redis:       redisClient,
		maxAttempts: 10,
		window:      time.Minute,
	}
}

// CheckoutRateLimit limits checkout attempts per session (or IP when
// the request carries no session header).
func (r *RateLimiter) CheckoutRateLimit(sessionHeader string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(sessionHeader)
			if id == "" {
				id = c.RealIP()
			}
			key := fmt.Sprintf("ratelimit:checkout:%s", id)

			ctx := context.Background()
			count, err := r.redis.Incr(ctx, key).Result()
			if err == nil {
				if count == 1 {
					r.redis.Expire(ctx, key, r.window)
				}
				if count > r.maxAttempts {
					return c.JSON(http.StatusTooManyRequests, map[string]string{
						"error": "Rate limit exceeded. Please try again later.",
					})
				}
			}

			return next(c)
		}
	}
}
