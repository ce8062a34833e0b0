package middleware

import (
	"net/http"
	"strings"

	"github.com/hst-Sunday/tubed/config"
	"github.com/hst-Sunday/tubed/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware accepts either the raw access code (Authorization bearer
// or x-auth-code header, useful for scripts) or a session token issued at
// login (bearer or cookie).
func AuthMiddleware(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := bearerToken(c)

		if cfg.AccessCode != "" {
			code := bearer
			if code == "" {
				code = c.GetHeader("x-auth-code")
			}
			if code != "" && code == cfg.AccessCode {
				c.Next()
				return
			}
		}

		token := bearer
		if token == "" {
			token, _ = c.Cookie(cfg.CookieName)
		}
		if token == "" {
			utils.Error(c, http.StatusUnauthorized, "missing auth token or access code")
			c.Abort()
			return
		}

		if _, err := utils.ParseToken(cfg.JWTSecret, token); err != nil {
			utils.Error(c, http.StatusUnauthorized, "auth token is invalid or expired")
			c.Abort()
			return
		}

		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
