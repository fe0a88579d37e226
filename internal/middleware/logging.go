// Package middleware provides the gateway's gin middleware chain.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ccbridge/gateway/pkg/logger"
)

// RequestIDKey is the gin.Context key the request id is stored under.
const RequestIDKey = "request_id"

// Logging assigns a per-request id and logs method/path/status/duration
// once the request completes.
func Logging(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set(RequestIDKey, requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start).Milliseconds()

		log.HTTPLog(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), duration, requestID)
	}
}

// RequestIDFrom reads the request id set by Logging, or "unknown" if absent.
func RequestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(RequestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return "unknown"
}
