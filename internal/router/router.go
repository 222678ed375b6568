package router

import (
	"os"
	"time"

	"github.com/voxlink/ivr-dialer-backend/internal/database/repository"
	"github.com/voxlink/ivr-dialer-backend/internal/handlers"
	"github.com/voxlink/ivr-dialer-backend/internal/middleware"
	"github.com/voxlink/ivr-dialer-backend/internal/services"
	"github.com/voxlink/ivr-dialer-backend/internal/services/auth"
	"github.com/voxlink/ivr-dialer-backend/internal/services/excel"
	"github.com/voxlink/ivr-dialer-backend/internal/services/ivr"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin router: user-facing /api/v1 routes behind
// bearer auth, device-facing /device routes behind device-key auth, and the
// public audio stream route.
func SetupRouter(db *gorm.DB, hub *services.DeviceHub, publisher *services.RabbitMQService, sessions ivr.SessionStore) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Create a new router
	r := gin.New()

	// Use middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Device-Key"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Create services
	authService := auth.NewAuthService(db)
	deviceService := services.NewDeviceService(repository.NewDeviceRepository(db))
	excelService := excel.NewExcelService(
		envOrDefault("EXPORTS_DIR", "./storage/exports"),
		envOrDefault("TEMP_DIR", "./storage/tmp"),
	)
	baseURL := os.Getenv("API_BASE_URL")

	// Create middleware with services
	bearerTokenMiddleware := middleware.NewBearerTokenMiddleware(db)
	deviceKeyMiddleware := middleware.NewDeviceKeyMiddleware(deviceService)

	// Create handlers with services
	authHandler := handlers.NewAuthHandler(authService)
	flowHandler := handlers.NewIVRFlowHandler(db)
	audioHandler := handlers.NewAudioFileHandler(db, baseURL)
	contactGroupHandler := handlers.NewContactGroupHandler(db, excelService)
	campaignHandler := handlers.NewCampaignHandler(db, hub, publisher, excelService)
	deviceHandler := handlers.NewDeviceHandler(db, hub)
	deviceCallHandler := handlers.NewDeviceCallHandler(db, hub, sessions)
	callLogHandler := handlers.NewCallLogHandler(db)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.RefreshToken)
		}

		// Audio streaming (token-authenticated, devices fetch prompts here)
		api.GET("/audio-files/stream/:token", audioHandler.StreamAudio)

		// Protected routes
		protected := api.Group("")
		protected.Use(bearerTokenMiddleware.BearerTokenAuthMiddleware())
		{
			// Auth protected routes
			authProtected := protected.Group("/auth")
			{
				authProtected.POST("/logout", authHandler.Logout)
				authProtected.GET("/profile", authHandler.GetProfile)
				authProtected.POST("/change-password", authHandler.ChangePassword)
			}

			// IVR flow routes
			flows := protected.Group("/flows")
			{
				flows.POST("", flowHandler.CreateFlow)
				flows.GET("", flowHandler.GetFlows)
				flows.GET("/:id", flowHandler.GetFlow)
				flows.GET("/:id/full", flowHandler.GetFlowWithNodes)
				flows.PUT("/:id", flowHandler.UpdateFlow)
				flows.DELETE("/:id", flowHandler.DeleteFlow)
				flows.POST("/:id/validate", flowHandler.ValidateFlow)
				flows.POST("/:id/nodes", flowHandler.AddNode)
				flows.PUT("/:id/nodes/:node_id", flowHandler.UpdateNode)
				flows.DELETE("/:id/nodes/:node_id", flowHandler.DeleteNode)
			}

			// Audio file routes
			audioFiles := protected.Group("/audio-files")
			{
				audioFiles.POST("", audioHandler.UploadAudio)
				audioFiles.GET("", audioHandler.GetAudioFiles)
				audioFiles.GET("/:id", audioHandler.GetAudioFile)
				audioFiles.GET("/:id/token", audioHandler.GetStreamToken)
				audioFiles.DELETE("/:id", audioHandler.DeleteAudioFile)
			}

			// Contact group routes
			contactGroups := protected.Group("/contact-groups")
			{
				contactGroups.POST("", contactGroupHandler.CreateGroup)
				contactGroups.GET("", contactGroupHandler.GetGroups)
				contactGroups.GET("/:id", contactGroupHandler.GetGroup)
				contactGroups.PUT("/:id", contactGroupHandler.UpdateGroup)
				contactGroups.DELETE("/:id", contactGroupHandler.DeleteGroup)
				contactGroups.POST("/:id/contacts", contactGroupHandler.AddContact)
				contactGroups.GET("/:id/contacts", contactGroupHandler.GetContacts)
				contactGroups.DELETE("/:id/contacts/:contact_id", contactGroupHandler.DeleteContact)
				contactGroups.POST("/:id/contacts/import", contactGroupHandler.ImportContacts)
				contactGroups.GET("/:id/contacts/export", contactGroupHandler.ExportContacts)
			}

			// Campaign routes
			campaigns := protected.Group("/campaigns")
			{
				campaigns.POST("", campaignHandler.CreateCampaign)
				campaigns.GET("", campaignHandler.GetCampaigns)
				campaigns.GET("/:id", campaignHandler.GetCampaign)
				campaigns.PUT("/:id", campaignHandler.UpdateCampaign)
				campaigns.DELETE("/:id", campaignHandler.DeleteCampaign)
				campaigns.POST("/:id/start", campaignHandler.StartCampaign)
				campaigns.POST("/:id/pause", campaignHandler.PauseCampaign)
				campaigns.GET("/:id/call-logs", campaignHandler.GetCampaignCallLogs)
				campaigns.GET("/:id/call-logs/export", campaignHandler.ExportCampaignCallLogs)
				campaigns.GET("/:id/summary", campaignHandler.GetCampaignSummary)
			}

			// Device management routes
			devices := protected.Group("/devices")
			{
				devices.POST("", deviceHandler.RegisterDevice)
				devices.GET("", deviceHandler.GetDevices)
				devices.DELETE("/:id", deviceHandler.DeleteDevice)
			}

			// Call log routes
			protected.GET("/call-logs", callLogHandler.GetCallLogs)
		}
	}

	// Device-facing routes (X-Device-Key authenticated)
	device := r.Group("/device")
	device.Use(deviceKeyMiddleware.DeviceKeyAuthMiddleware())
	{
		device.POST("/heartbeat", deviceCallHandler.Heartbeat)
		device.GET("/commands", deviceCallHandler.StreamCommands)
		device.POST("/calls/begin", deviceCallHandler.BeginCall)
		device.POST("/calls/:call_id/event", deviceCallHandler.CallEvent)
		device.POST("/calls/:call_id/abandon", deviceCallHandler.AbandonCall)
	}

	return r
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
