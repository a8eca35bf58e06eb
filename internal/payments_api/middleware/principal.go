package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// PrincipalHeader carries the authenticated user ID, injected by the
	// upstream auth gateway. This service never authenticates on its own.
	PrincipalHeader = "X-User-ID"

	// PrincipalKey is the key used to store the principal in the context
	PrincipalKey = "principal_id"
)

// Principal middleware requires a valid user ID header on every request and
// makes it available to handlers as a parsed UUID
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(PrincipalHeader)
		if raw == "" {
			abortUnauthorized(c, "Missing "+PrincipalHeader+" header")
			return
		}

		principal, err := uuid.Parse(raw)
		if err != nil {
			abortUnauthorized(c, "Invalid "+PrincipalHeader+" header")
			return
		}

		c.Set(PrincipalKey, principal)
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated user ID from the gin context
func GetPrincipal(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(PrincipalKey); exists {
		if principal, ok := v.(uuid.UUID); ok {
			return principal, true
		}
	}
	return uuid.Nil, false
}

func abortUnauthorized(c *gin.Context, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, response)
}
