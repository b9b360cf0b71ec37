package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/CUknot/chat_backend/logger"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/services"
	"github.com/gin-gonic/gin"
)

const (
	UserIDKey = logger.UserIDKey
	UserKey   = "user"
	TokenKey  = "token"
)

// Authenticator resolves a presented token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// TokenAuth rejects requests without a valid "Bearer" or "Token" credential
// and stores the caller under UserIDKey and UserKey.
func TokenAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if errors.Is(err, services.ErrUnauthorized) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			logger.Ctx(c.Request.Context()).Error().Err(err).Msg("token lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "An unexpected error occurred"})
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserKey, user)
		c.Set(TokenKey, token)
		c.Next()
	}
}

// extractToken accepts "Bearer <t>" and the "Token <t>" scheme older clients send.
func extractToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
	default:
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// CurrentUserID returns the authenticated caller set by TokenAuth.
func CurrentUserID(c *gin.Context) uint {
	return c.MustGet(UserIDKey).(uint)
}

func CurrentToken(c *gin.Context) string {
	return c.GetString(TokenKey)
}
