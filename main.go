package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hst-Sunday/tubed/config"
	"github.com/hst-Sunday/tubed/database"
	"github.com/hst-Sunday/tubed/handlers"
	"github.com/hst-Sunday/tubed/logger"
	"github.com/hst-Sunday/tubed/middleware"
	"github.com/hst-Sunday/tubed/models"
	"github.com/hst-Sunday/tubed/repositories"
	"github.com/hst-Sunday/tubed/services"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("starting tubed service")

	cfgPath := os.Getenv("TUBED_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)

	db, err := database.OpenSQLite(&cfg.Database)
	if err != nil {
		log.Fatalf("open database failed: %v", err)
	}

	if err := db.AutoMigrate(&models.FileRecord{}); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	log.Println("database migration completed")

	if err := os.MkdirAll(filepath.Join(cfg.Storage.BasePath, "uploads"), 0o755); err != nil {
		log.Fatalf("create uploads dir failed: %v", err)
	}

	repoContainer := repositories.BuildContainer(db)
	serviceContainer := services.NewContainer(repoContainer, cfg)
	handlers.SetServices(serviceContainer)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RequestLogger())
	setupRoutes(r, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine, cfg *config.Config) {
	api := r.Group("/api")

	api.GET("/health", handlers.HealthCheck)

	authHandlers := handlers.NewAuthHandlers(cfg.Auth)
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandlers.Login)
		auth.POST("/logout", authHandlers.Logout)
		auth.GET("/verify", authHandlers.Verify)
	}

	// Stored objects are addressed by unguessable names and served publicly.
	api.GET("/images/*path", handlers.ServeImage)
	api.GET("/uploads/*path", handlers.ServeUpload)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.POST("/upload", handlers.UploadFiles)
		protected.GET("/files", handlers.ListFiles)
		protected.GET("/files/check", handlers.CheckFile)
		protected.GET("/files/:id", handlers.GetFile)
		protected.DELETE("/files/:id", handlers.DeleteFile)
		protected.POST("/files/batch-delete", handlers.BatchDeleteFiles)
		protected.POST("/files/cleanup", handlers.CleanupFiles)
	}
}
