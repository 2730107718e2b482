package routes

import (
	"sparks-server/internal/booking"
	"sparks-server/internal/config"
	"sparks-server/internal/handlers"
	"sparks-server/internal/middleware"
	"sparks-server/internal/models"
	"sparks-server/internal/notify"
	"sparks-server/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, engine *booking.Engine, slots *store.AvailabilityStore, dispatcher *notify.Dispatcher, logger *zap.Logger) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	availabilityHandler := handlers.NewAvailabilityHandler(db, slots)
	sessionHandler := handlers.NewSessionHandler(db, engine, dispatcher, logger)
	notificationHandler := handlers.NewNotificationHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// User management routes
		userRoutes := private.Group("/users")
		{
			// Therapist directory - accessible by all authenticated users
			userRoutes.GET("/therapists", userHandler.GetTherapists)

			// Therapists manage their own practice profile
			userRoutes.PUT("/therapist-profile", middleware.RoleAuthMiddleware(models.RoleTherapist), userHandler.UpsertTherapistProfile)

			// Parents link and list their children
			userRoutes.POST("/children", middleware.RoleAuthMiddleware(models.RoleParent), userHandler.LinkChild)
			userRoutes.GET("/children", middleware.RoleAuthMiddleware(models.RoleParent), userHandler.GetChildren)

			// Admin-only routes
			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Availability routes
		availabilityRoutes := private.Group("/availability")
		{
			// Therapists publish recurring availability in bulk
			availabilityRoutes.POST("/bulk", middleware.RoleAuthMiddleware(models.RoleTherapist), availabilityHandler.BulkAdd)

			// Therapists view their own slots, booked ones included
			availabilityRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleTherapist), availabilityHandler.GetMyAvailability)
		}

		// Public-to-authenticated view of a therapist's open slots
		private.GET("/therapists/:id/availability", availabilityHandler.GetTherapistAvailability)

		// Session routes
		sessionRoutes := private.Group("/sessions")
		{
			sessionRoutes.POST("/book", middleware.RoleAuthMiddleware(models.RolePatient), sessionHandler.BookSession)
			sessionRoutes.POST("/book-for-child", middleware.RoleAuthMiddleware(models.RoleParent), sessionHandler.BookSessionForChild)

			// All authenticated users can get their own sessions
			sessionRoutes.GET("", sessionHandler.GetSessionsForUser) // Logic inside handler differentiates by role
			sessionRoutes.GET("/:id", sessionHandler.GetSessionByID) // Authorization inside handler

			// Status updates (Therapist, Admin, Patient/Parent for cancellation)
			sessionRoutes.PATCH("/:id/status", sessionHandler.UpdateSessionStatus) // Authorization inside handler
		}

		// Notification routes
		notificationRoutes := private.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.GetNotifications)
			notificationRoutes.GET("/unread-count", notificationHandler.GetUnreadCount)
			notificationRoutes.PATCH("/:id/read", notificationHandler.MarkNotificationAsRead)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
