// README: Firebase bearer-token auth middleware.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gswash/internal/infra"
	"gswash/internal/types"
)

const identityKey = "caller_identity"

// Auth verifies the Authorization bearer token and stores the resolved
// identity on the request context. The identity provider is external;
// by the time a request reaches a handler the capability set is final.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(identityKey, token.Identity())
		c.Next()
	}
}

// RequireOperator rejects callers without delegate/admin capability.
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerIdentity(c).CanOperate() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "operator capability required"})
			return
		}
		c.Next()
	}
}

// CallerIdentity returns the identity resolved by Auth; zero value when
// the route skipped authentication.
func CallerIdentity(c *gin.Context) types.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return types.Identity{}
	}
	id, _ := v.(types.Identity)
	return id
}
