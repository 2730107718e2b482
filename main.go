package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"sparks-server/internal/booking"
	"sparks-server/internal/config"
	"sparks-server/internal/meeting"
	"sparks-server/internal/models"
	"sparks-server/internal/notify"
	"sparks-server/internal/routes"
	"sparks-server/internal/store"
	"sparks-server/internal/utils"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	utils.InitializeLogger(cfg.Environment)
	logger := utils.GetLogger()
	defer logger.Sync()

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		logger.Fatal("Error connecting to database", zap.Error(err))
	}

	slots := store.NewAvailabilityStore(db)
	dispatcher := notify.NewDispatcher(db, logger)

	// Use Google Calendar for meeting links when credentials are configured,
	// otherwise fall back to locally generated links.
	var meetings booking.MeetingProvisioner
	if cfg.Calendar.CredentialsFile != "" {
		calendarProvisioner, err := meeting.NewCalendarProvisioner(context.Background(), cfg.Calendar.CredentialsFile, cfg.Calendar.CalendarID, logger)
		if err != nil {
			logger.Fatal("Error initializing calendar provisioner", zap.Error(err))
		}
		meetings = calendarProvisioner
	} else {
		meetings = meeting.NewLocalProvisioner(cfg.AppURL)
	}

	engine := booking.NewEngine(db, slots, meetings, dispatcher, logger, cfg.AppURL)

	// Initialize Gin router
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes - passing DB and config to let routes.go create the handlers
	routes.SetupRoutes(router, db, cfg, engine, slots, dispatcher, logger)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("Server starting", zap.String("port", cfg.Port))
	if err := router.Run(serverAddr); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
