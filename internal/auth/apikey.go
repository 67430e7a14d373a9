package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var schemes = []string{"Bearer ", "Api-Key "}

// APIKeyMiddleware requires "Authorization: Bearer <key>" or
// "Authorization: Api-Key <key>". An empty key disables the check.
func APIKeyMiddleware(apiKey string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		if !ValidAPIKey(c.GetHeader("Authorization"), apiKey) {
			logger.Warn("Unauthorized API access",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("remote_addr", c.Request.RemoteAddr))

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "API key required",
				"hint":  "Use 'Authorization: Bearer <key>' or 'Authorization: Api-Key <key>'",
			})
			return
		}

		c.Next()
	}
}

// ValidAPIKey reports whether authHeader carries expected under a supported scheme
func ValidAPIKey(authHeader, expected string) bool {
	if expected == "" || authHeader == "" {
		return false
	}

	for _, scheme := range schemes {
		if token, ok := strings.CutPrefix(authHeader, scheme); ok {
			return subtle.ConstantTimeCompare([]byte(token), []byte(expected)) == 1
		}
	}
	return false
}
