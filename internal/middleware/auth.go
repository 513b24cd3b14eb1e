package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// internalKeyHeader carries the shared key on service-to-service calls.
const internalKeyHeader = "X-Internal-API-Key"

// InternalAuthMiddleware guards the /internal route group. The expected key
// comes from INTERNAL_API_KEY; when it is unset every request is rejected so
// a misconfigured deployment fails loudly instead of open.
func InternalAuthMiddleware() gin.HandlerFunc {
	logger := log.With().Str("component", "internal_auth").Logger()

	expected := []byte(os.Getenv("INTERNAL_API_KEY"))
	if len(expected) == 0 {
		logger.Warn().Msg("INTERNAL_API_KEY is not set, internal endpoints are disabled")
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Internal API key not configured",
			})
		}
	}

	return func(c *gin.Context) {
		presented := []byte(c.GetHeader(internalKeyHeader))
		if subtle.ConstantTimeCompare(presented, expected) != 1 {
			logger.Debug().
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP()).
				Msg("Rejected internal request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
