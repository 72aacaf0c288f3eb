package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/thereayou/streamhub/pkg/apperrors"
	"github.com/thereayou/streamhub/pkg/auth"
)

const (
	UserIDKey = "userID"
	TokenKey  = "token"
)

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// AuthMiddleware requires a valid bearer token in the Authorization header.
func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ExtractTokenFromHeader(c.Request)
		if err != nil {
			abortWithError(c, apperrors.Unauthorized("missing or invalid token"))
			return
		}
		authenticate(c, authn, token)
	}
}

// WSAuthMiddleware also accepts the token as a ?token= query parameter,
// since browsers cannot set headers on a websocket handshake.
func WSAuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			if t, err := auth.ExtractTokenFromHeader(c.Request); err == nil {
				token = t
			}
		}
		if token == "" {
			abortWithError(c, apperrors.Unauthorized("missing token"))
			return
		}
		authenticate(c, authn, token)
	}
}

func authenticate(c *gin.Context, authn Authenticator, token string) {
	userID, err := authn.Authenticate(c.Request.Context(), token)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.Set(UserIDKey, userID)
	c.Set(TokenKey, token)
	c.Next()
}

// UserID returns the authenticated caller. Only valid behind AuthMiddleware.
func UserID(c *gin.Context) uuid.UUID {
	return c.MustGet(UserIDKey).(uuid.UUID)
}

func abortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
