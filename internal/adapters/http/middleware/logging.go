package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meli/ecommerce-orders-api/internal/core/logger"
)

const HeaderRequestID = "X-Request-ID"

// requestID reuses a client supplied id when it is reasonably short.
func requestID(c *gin.Context) string {
	if id := c.GetHeader(HeaderRequestID); id != "" && len(id) <= 128 {
		return id
	}
	return uuid.NewString()
}

func levelForStatus(status int) logger.LogLevel {
	switch {
	case status >= 500:
		return logger.LogLevelError
	case status >= 400:
		return logger.LogLevelWarn
	default:
		return logger.LogLevelInfo
	}
}

// LogRequest tags the request context with a request id, echoes it in the
// response and writes one access log entry once the handler chain returns.
func LogRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := requestID(c)
		c.Header(HeaderRequestID, id)
		ctx := logger.WithAttrs(c.Request.Context(), map[string]any{"http.request_id": id})
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		attrs := map[string]any{
			"http.method":        c.Request.Method,
			"http.path":          c.Request.URL.Path,
			"http.route":         c.FullPath(),
			"http.status_code":   status,
			"http.duration_ms":   time.Since(start).Milliseconds(),
			"http.client_ip":     c.ClientIP(),
			"http.response_size": c.Writer.Size(),
		}
		if c.Request.ContentLength > 0 {
			attrs["http.request_size"] = c.Request.ContentLength
		}
		if key := c.GetHeader("Idempotency-Key"); key != "" {
			attrs["http.idempotency_key"] = key
		}
		if len(c.Errors) > 0 {
			attrs["http.errors"] = c.Errors.String()
		}

		logger.Log(ctx, logger.LogEntry{
			Level:      levelForStatus(status),
			Message:    "HTTP Request",
			Attributes: attrs,
		})
	}
}
