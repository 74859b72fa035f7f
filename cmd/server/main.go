package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/civicai/portal/adapters/gemini"
	"github.com/civicai/portal/adapters/memory"
	"github.com/civicai/portal/domain/repositories"
	"github.com/civicai/portal/internal/api"
	"github.com/civicai/portal/internal/auth"
	"github.com/civicai/portal/internal/config"
	"github.com/civicai/portal/internal/dialogue"
	"github.com/civicai/portal/internal/websocket"
	"github.com/civicai/portal/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, relying on process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()
	gateway, err := gemini.New(ctx, gemini.Config{
		APIKey:    cfg.GeminiAPIKey,
		TextModel: cfg.TextModel,
		LiveModel: cfg.LiveModel,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize inference gateway", zap.Error(err))
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	// Initialize usecase services
	authenticator := auth.NewAuthenticator(cfg.JWTSecret)
	requestRepo := memory.NewRequestRepository()
	assistant := usecase.NewAssistantService(gateway, logger)
	forms := usecase.NewFormService(gateway, logger)
	requests := usecase.NewRequestService(requestRepo, gateway, logger)
	profile := usecase.NewProfileService(gateway, logger)
	services := usecase.NewServiceInfoService(gateway, logger)
	dialogues := dialogue.NewManager(gateway, logger)

	// Initialize WebSocket hub for voice sessions
	liveCfg := repositories.LiveConfig{
		SystemInstruction: "You are CivicAI, a helpful voice assistant for a citizen services portal. " +
			"Answer questions about government schemes, forms, and procedures in short spoken sentences.",
		Voice: cfg.LiveVoice,
	}
	hub := websocket.NewHub(gateway, liveCfg, logger)
	go hub.Run()

	// Initialize API routes
	server := api.NewServer(authenticator, assistant, forms, requests, profile, services, dialogues, hub, logger)
	server.InitRoutes(e)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
