package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

const userIDKey = "user_id"

type TokenParser interface {
	ParseToken(tokenString string) (uuid.UUID, error)
}

// AuthMiddleware requires a valid bearer token and stores the caller's id in
// the gin context.
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Authorization header is required",
			})
			return
		}

		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token_format",
				"message": "Authorization header must use Bearer token",
			})
			return
		}

		userID, err := parser.ParseToken(strings.TrimSpace(tokenStr))
		if err != nil {
			code, message := "invalid_token", "Token validation failed"
			switch {
			case errors.Is(err, jwt.ErrTokenExpired):
				code, message = "expired_token", "Token has expired"
			case errors.Is(err, jwt.ErrTokenInvalidIssuer):
				code, message = "invalid_issuer", "Token issuer is invalid"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   code,
				"message": message,
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the id stored by AuthMiddleware.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}
