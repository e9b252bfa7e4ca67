package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sheet_analytics/internal/api"
	"sheet_analytics/internal/api/middleware"
	"sheet_analytics/internal/app/service"
	"sheet_analytics/internal/common/security"
	"sheet_analytics/internal/domain/repository"
	"sheet_analytics/internal/platform/cache"
	"sheet_analytics/internal/platform/config"
	"sheet_analytics/internal/platform/database"
	"sheet_analytics/internal/platform/genai"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	database.Migrate()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	requestRepo := repository.NewPgRoleRequestRepository(database.DB)
	sheetRepo := repository.NewPgSheetRepository(database.DB)

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo)
	adminService := service.NewAdminService(userRepo, sheetRepo)
	requestService := service.NewRoleRequestService(requestRepo, userRepo, database.DB)
	sheetService := service.NewSheetService(sheetRepo)
	generator := genai.NewClient(config.AppConfig.GenAIBaseURL, config.AppConfig.GenAIModel, config.AppConfig.GenAIAPIKey)
	insightService := service.NewInsightService(sheetRepo, generator, cache.RDB, config.AppConfig.InsightCacheTTL)

	// 7. Initialize Router & HTTP Server
	authMW := middleware.NewAuth(userRepo)
	router := api.NewRouter(authService, adminService, requestService, sheetService, insightService, authMW)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
