package services

import (
	"net/http"
	"time"

	"github.com/hst-Sunday/tubed/config"
	"github.com/hst-Sunday/tubed/utils"
)

type AuthService interface {
	// Login exchanges the shared access code for a signed session token.
	Login(authCode string) (string, error)
	Verify(token string) bool
}

type authService struct {
	cfg config.AuthConfig
}

func NewAuthService(cfg config.AuthConfig) AuthService {
	return &authService{cfg: cfg}
}

func (s *authService) Login(authCode string) (string, error) {
	if s.cfg.AccessCode == "" {
		return "", newAppError(http.StatusInternalServerError, "access code is not configured", nil)
	}
	if authCode != s.cfg.AccessCode {
		return "", newAppError(http.StatusUnauthorized, "invalid access code", nil)
	}

	token, err := utils.GenerateToken(s.cfg.JWTSecret, time.Duration(s.cfg.ExpireHours)*time.Hour)
	if err != nil {
		return "", newAppError(http.StatusInternalServerError, "failed to generate token", err)
	}
	return token, nil
}

func (s *authService) Verify(token string) bool {
	if token == "" {
		return false
	}
	_, err := utils.ParseToken(s.cfg.JWTSecret, token)
	return err == nil
}
