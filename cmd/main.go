package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/taskbridge/taskbridge-gobackend/internal/auth"
	"github.com/taskbridge/taskbridge-gobackend/internal/config"
	"github.com/taskbridge/taskbridge-gobackend/internal/db"
	"github.com/taskbridge/taskbridge-gobackend/internal/gateway"
	"github.com/taskbridge/taskbridge-gobackend/internal/handlers"
	"github.com/taskbridge/taskbridge-gobackend/internal/logger"
	"github.com/taskbridge/taskbridge-gobackend/internal/repository"
	"github.com/taskbridge/taskbridge-gobackend/internal/services"
)

func main() {
	// Load .env
	if err := godotenv.Load(".env"); err != nil {
		// Fine in production; the environment is set by the platform.
		_ = err
	}

	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Starting taskbridge backend",
		zap.String("port", cfg.Server.Port),
		zap.String("database", cfg.Mongo.Database),
	)

	// Connect to MongoDB
	ctx := context.Background()
	client, err := db.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.Disconnect(disconnectCtx, client); err != nil {
			log.Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	log.Info("Connected to MongoDB")

	database := client.Database(cfg.Mongo.Database)

	// Repositories
	projectRepo := repository.NewProjectRepository(database, log)
	bidRepo := repository.NewBidRepository(database, log)
	userRepo := repository.NewUserRepository(database, log)
	historyRepo := repository.NewHistoryRepository(database, log)

	// Collaborators and services
	authManager := auth.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTLMinutes)*time.Minute)
	gatewayClient := gateway.NewClient(cfg.Gateway)

	userService := services.NewUserService(userRepo, authManager, log)
	projectService := services.NewProjectService(projectRepo, bidRepo, log)
	milestoneService := services.NewMilestoneService(projectRepo, bidRepo, log)
	escrowService := services.NewEscrowService(projectRepo, bidRepo, userRepo, gatewayClient, historyRepo, cfg.Gateway.Currency, log)

	// Handlers and router
	userHandler := handlers.NewUserHandler(userService, log)
	projectHandler := handlers.NewProjectHandler(projectService, log)
	milestoneHandler := handlers.NewMilestoneHandler(milestoneService, log)
	escrowHandler := handlers.NewEscrowHandler(escrowService, log)
	webhookHandler := handlers.NewWebhookHandler(historyRepo, cfg.Gateway.CallbackToken, log)

	router := handlers.NewRouter(authManager, userHandler, projectHandler, milestoneHandler, escrowHandler, webhookHandler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server running", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
}
