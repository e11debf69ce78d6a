package middleware

import (
	"net/http"
	"strings"

	"finpal-backend/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key holding the authenticated user's ID
const UserIDKey = "userID"

// TokenParser verifies an access token and returns the user it was issued for
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

// Auth rejects requests without a valid bearer token and stores the user ID
// in the context
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c.Request)
		if tokenString == "" {
			unauthorized(c, "Not authorized, no token")
			return
		}

		userID, err := parser.ParseToken(tokenString)
		if err != nil {
			logger.Get().Debug("rejected access token", zap.Error(err))
			unauthorized(c, "Not authorized, token failed")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user's ID set by Auth
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}
