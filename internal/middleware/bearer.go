package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// MetricsAuthMiddleware protects the metrics endpoint with a Bearer token.
// An empty token leaves the endpoint open.
func MetricsAuthMiddleware(token string) gin.HandlerFunc {
	return bearerAuth(token, "Metrics", true)
}

// SyncAuthMiddleware protects the sync endpoints with SYNC_API_KEY.
// Unlike metrics, an unset key rejects every request.
func SyncAuthMiddleware(apiKey string) gin.HandlerFunc {
	return bearerAuth(apiKey, "Sync", false)
}

func bearerAuth(token, realm string, openWhenUnset bool) gin.HandlerFunc {
	challenge := `Bearer realm="` + realm + `"`
	reject := func(c *gin.Context, message string) {
		c.Header("WWW-Authenticate", challenge)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error":   "unauthorized",
			"message": message,
		})
	}

	return func(c *gin.Context) {
		if token == "" {
			if openWhenUnset {
				c.Next()
				return
			}
			reject(c, "Endpoint is not configured")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			reject(c, "Bearer token required")
			return
		}

		provided := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			reject(c, "Invalid token")
			return
		}

		c.Next()
	}
}
