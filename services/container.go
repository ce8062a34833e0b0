package services

import (
	"github.com/hst-Sunday/tubed/config"
	"github.com/hst-Sunday/tubed/repositories"
)

type Container struct {
	Auth  AuthService
	File  FileService
	Image ImageService
}

func NewContainer(repos repositories.Container, cfg *config.Config) *Container {
	return &Container{
		Auth:  NewAuthService(cfg.Auth),
		File:  NewFileService(repos.TxManager, repos.Files, cfg.Storage, cfg.Pagination),
		Image: NewImageService(cfg.Storage, cfg.Transform),
	}
}
