// Package middleware provides the Gin middleware chain.
package middleware

import (
	"net/http"
	"strings"

	"doc-chat-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// PrincipalKey is the gin context key holding the authenticated user id.
const PrincipalKey = "principalID"

// ClaimsKey is the gin context key holding the verified token claims.
const ClaimsKey = "claims"

const bearerPrefix = "Bearer "

// RequireAuth rejects requests without a valid bearer token and stores the
// principal in the context.
func RequireAuth(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := verifyBearer(c, jwtManager)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Set(PrincipalKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// OptionalAuth stores the principal when a valid bearer token is present
// and lets the request through either way. Handlers behind it serve both
// anonymous and authenticated callers.
func OptionalAuth(jwtManager *token.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := verifyBearer(c, jwtManager); ok {
			c.Set(PrincipalKey, claims.UserID)
			c.Set(ClaimsKey, claims)
		}
		c.Next()
	}
}

func verifyBearer(c *gin.Context, jwtManager *token.JWTManager) (*token.CustomClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return nil, false
	}
	claims, err := jwtManager.VerifyToken(strings.TrimPrefix(authHeader, bearerPrefix))
	if err != nil {
		return nil, false
	}
	return claims, true
}

// Principal extracts the caller's user id from the context, or nil for an
// anonymous request.
func Principal(c *gin.Context) *uint {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil
	}
	id, ok := v.(uint)
	if !ok {
		return nil
	}
	return &id
}
