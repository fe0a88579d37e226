package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS implements the gateway's wildcard preflight policy: any origin may
// call /v1/messages, matching the single wire-level policy named for
// OPTIONS preflight requests.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, x-api-key, Anthropic-Version")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
