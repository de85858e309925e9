package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms/googleai"

	"github.com/talentgate/careers/internal/config"
	"github.com/talentgate/careers/internal/database"
	"github.com/talentgate/careers/internal/extract"
	"github.com/talentgate/careers/internal/handlers"
	"github.com/talentgate/careers/internal/llm"
	"github.com/talentgate/careers/internal/parser"
	"github.com/talentgate/careers/internal/scoring"
	"github.com/talentgate/careers/internal/services"
	"github.com/talentgate/careers/internal/session"
)

func main() {
	// Optional in production; the env vars win either way.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("Database error: ", err)
	}

	ctx := context.Background()
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.LLMAPIKey),
		googleai.WithDefaultModel(cfg.LLMModel),
	)
	if err != nil {
		log.Fatal("LLM client error: ", err)
	}

	gateway := llm.NewGateway(model, cfg.LLMTimeout)
	repo := database.NewRepository(db)

	sessions := session.NewStore(cfg.SessionTTL)
	sessions.StartReaper(ctx, cfg.SessionTTL/2)

	appService := services.NewApplicationService(
		extract.New(cfg.MaxResumeBytes),
		parser.New(gateway),
		scoring.New(gateway),
		sessions,
		repo, repo, repo,
		cfg.UploadsDir,
	)
	jobService := services.NewJobService(repo)

	jobHandler := handlers.NewJobHandler(jobService)
	appHandler := handlers.NewApplicationHandler(appService, cfg.MaxResumeBytes)

	r := gin.Default()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)

		api.GET("/jobs", jobHandler.ListJobs)
		api.GET("/jobs/:id", jobHandler.GetJob)
		api.POST("/jobs", jobHandler.CreateJob)

		api.POST("/jobs/:id/applications", appHandler.SubmitApplication)

		api.GET("/review/:session", appHandler.GetReview)
		api.PATCH("/review/:session", appHandler.EditReview)
		api.POST("/review/:session/confirm", appHandler.ConfirmReview)
		api.DELETE("/review/:session", appHandler.AbandonReview)
	}

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to start: ", err)
	}
}
