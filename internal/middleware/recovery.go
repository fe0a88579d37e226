package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ccbridge/gateway/pkg/logger"
)

// Recovery converts a panic anywhere downstream into a 500 JSON response
// instead of killing the connection.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				requestID := RequestIDFrom(c)
				log.WithRequestID(requestID).WithField("panic", r).Error("panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":      "internal server error",
					"request_id": requestID,
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
