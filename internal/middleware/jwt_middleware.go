package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_payments/internal/utils"
)

// JWTMiddleware guards admin routes with HS256 access tokens.
type JWTMiddleware struct {
	secret string
}

func NewJWTMiddleware(secret string) *JWTMiddleware {
	return &JWTMiddleware{secret: secret}
}

// Handle sets user_id and email from a valid Bearer token.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, _ := strings.Cut(c.GetHeader("Authorization"), " ")
		switch {
		case scheme == "":
			rejectAdmin(c, "UNAUTHORIZED", "Missing authorization header")
			return
		case scheme != "Bearer" || token == "":
			rejectAdmin(c, "UNAUTHORIZED", "Invalid authorization header")
			return
		}

		claims, err := utils.ValidateJWT(m.secret, token)
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("Admin token rejected")
			rejectAdmin(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func rejectAdmin(c *gin.Context, code, message string) {
	utils.Error(c, http.StatusUnauthorized, code, message)
	c.Abort()
}
