package handlers

import (
	"net/http"

	"github.com/hst-Sunday/tubed/config"
	"github.com/hst-Sunday/tubed/utils"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	AuthCode string `json:"authCode" binding:"required"`
}

// AuthHandlers owns the session cookie settings; everything else is
// delegated to the auth service.
type AuthHandlers struct {
	cfg config.AuthConfig
}

func NewAuthHandlers(cfg config.AuthConfig) *AuthHandlers {
	return &AuthHandlers{cfg: cfg}
}

func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "auth code is required")
		return
	}

	token, err := getServices().Auth.Login(req.AuthCode)
	if respondServiceError(c, err) {
		return
	}

	maxAge := h.cfg.ExpireHours * 3600
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, token, maxAge, "/", "", false, true)

	utils.Success(c, gin.H{"token": token})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", false, true)
	utils.SuccessWithMessage(c, "logged out", gin.H{})
}

func (h *AuthHandlers) Verify(c *gin.Context) {
	token := bearerOrCookie(c, h.cfg.CookieName)
	utils.Success(c, gin.H{"authenticated": getServices().Auth.Verify(token)})
}

func bearerOrCookie(c *gin.Context, cookieName string) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	token, _ := c.Cookie(cookieName)
	return token
}
