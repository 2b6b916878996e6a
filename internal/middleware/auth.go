package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	// SessionUserID is the session key holding the signed-in application user.
	SessionUserID = "user_id"

	contextUserID = "user_id"
)

// RequireUser rejects requests without a signed-in application user. The
// session cookie is issued by the host application; this service only
// reads it.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := session.Get(SessionUserID).(string)
		if !ok || userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Unauthorized",
			})
			return
		}

		c.Set(contextUserID, userID)
		c.Next()
	}
}

// UserID returns the user set by RequireUser, or "" when absent.
func UserID(c *gin.Context) string {
	return c.GetString(contextUserID)
}
