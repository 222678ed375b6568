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

	"github.com/voxlink/ivr-dialer-backend/internal/database"
	"github.com/voxlink/ivr-dialer-backend/internal/database/repository"
	"github.com/voxlink/ivr-dialer-backend/internal/router"
	"github.com/voxlink/ivr-dialer-backend/internal/services"
	"github.com/voxlink/ivr-dialer-backend/internal/services/auth"
	"github.com/voxlink/ivr-dialer-backend/internal/services/ivr"
	"github.com/voxlink/ivr-dialer-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	// Import Swagger docs
	_ "github.com/voxlink/ivr-dialer-backend/docs"
)

// @title IVR Dialer API
// @version 1.0
// @description Backend for IVR call campaigns: flows, contacts, campaigns and Android dialing devices
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@voxlink.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT token (e.g. "Bearer <token>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Shared device hub (SSE command streams) and call session store
	deviceHub := services.NewDeviceHub()
	sessionTTL := time.Duration(getEnvAsInt("CALL_SESSION_TTL_MINUTES", 60)) * time.Minute
	sessions := ivr.NewMemorySessionStore(sessionTTL)

	// Initialize RabbitMQ service (optional, dispatch works without it)
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
		rabbitMQService = nil
	} else {
		logrus.Info("RabbitMQ service initialized")
		defer rabbitMQService.Close()
	}

	// Initialize token cleanup service
	tokenCleanupService := auth.NewTokenCleanupService(db)
	tokenCleanupService.Start()
	defer tokenCleanupService.Stop()

	// Initialize device status service (mark stale devices offline)
	deviceStatusService := services.NewDeviceStatusService(db)
	deviceStatusService.Start()
	defer deviceStatusService.Stop()

	// Initialize campaign dispatch sweeper
	campaignService := buildCampaignService(db, deviceHub, rabbitMQService)
	dispatchService := services.NewCampaignDispatchService(campaignService)
	dispatchService.Start()
	defer dispatchService.Stop()

	// Initialize router
	r := router.SetupRouter(db, deviceHub, rabbitMQService, sessions)

	// Configure HTTP server
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

// buildCampaignService wires the campaign service for the background dispatch
// sweeper. The router builds its own instance with the same collaborators.
func buildCampaignService(db *gorm.DB, hub *services.DeviceHub, publisher *services.RabbitMQService) *services.CampaignService {
	campaignRepo := repository.NewCampaignRepository(db)
	flowRepo := repository.NewIVRFlowRepository(db)
	groupRepo := repository.NewContactGroupRepository(db)
	contactRepo := repository.NewContactRepository(db)
	scheduleRepo := repository.NewCallScheduleRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	callLogRepo := repository.NewCallLogRepository(db)

	if publisher != nil {
		return services.NewCampaignService(
			campaignRepo, flowRepo, groupRepo, contactRepo,
			scheduleRepo, deviceRepo, hub, publisher, callLogRepo,
		)
	}
	return services.NewCampaignService(
		campaignRepo, flowRepo, groupRepo, contactRepo,
		scheduleRepo, deviceRepo, hub, nil, callLogRepo,
	)
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, fmt.Sprintf("%d", defaultValue))
	var value int
	if _, err := fmt.Sscanf(valueStr, "%d", &value); err != nil {
		return defaultValue
	}
	return value
}
