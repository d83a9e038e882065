package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"interview-workers/internal/common/logger"
	"interview-workers/internal/common/observability"

	"github.com/gin-gonic/gin"
)

// cronAuth requires "Authorization: Bearer <secret>". An empty secret
// rejects every call.
func cronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
				"code":    "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

func requestLogger(log logger.Logger, obs *observability.Observability) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()

		obs.RecordRequest(c.Request.Context(), c.Request.Method, route, status, elapsed)

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"route":     route,
			"status":    status,
			"latencyMs": elapsed.Milliseconds(),
		}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", fields)
			return
		}
		log.Debug("request served", fields)
	}
}
