package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	repo "github.com/oksasatya/streamtube-backend/internal/domain/repository"
	"github.com/oksasatya/streamtube-backend/pkg/helpers"
	"github.com/oksasatya/streamtube-backend/pkg/response"
)

const (
	CtxUserIDKey = "userID"
	CtxUserKey   = "user"
)

// tokenFromRequest locates the access token: the cookie wins over an
// Authorization: Bearer header.
func tokenFromRequest(c *gin.Context) string {
	if tok, err := c.Cookie(helpers.AccessTokenCookie); err == nil && tok != "" {
		return tok
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// Auth validates the access token and resolves it to a stored user with the
// credential fields stripped. Every failure in here is a 401; nothing
// propagates as an unhandled error.
func Auth(users repo.UserRepository, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.AbortUnauthorized(c, "please authenticate")
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			response.AbortUnauthorized(c, "invalid access token")
			return
		}
		// The token may verify while the user is gone; treat that as
		// unauthenticated, not as a lookup error.
		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.AbortUnauthorized(c, "invalid access token")
			return
		}

		c.Set(CtxUserIDKey, u.ID)
		c.Set(CtxUserKey, u.Public())
		c.Next()
	}
}
