package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meli/ecommerce-orders-api/internal/adapters/http/handlers"
	"github.com/meli/ecommerce-orders-api/internal/core/logger"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit rejects requests beyond limit per window for the same method,
// route and client. Limiter failures let the request through.
func RateLimit(limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s:%s", c.Request.Method, c.FullPath(), c.ClientIP())

		allowed, err := limiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn(c.Request.Context(), "Rate limiter unavailable, allowing request", map[string]any{
				"error":      err.Error(),
				"http.route": c.FullPath(),
			})
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if !allowed {
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(window)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handlers.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// retryAfterSeconds rounds the window up to whole seconds, never below one.
func retryAfterSeconds(window time.Duration) int {
	return max(1, int(math.Ceil(window.Seconds())))
}
