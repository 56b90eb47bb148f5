// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/localspot/localspot-backend/internal/config"
	"github.com/localspot/localspot-backend/internal/handlers"
	"github.com/localspot/localspot-backend/internal/middleware"
	"github.com/localspot/localspot-backend/internal/realtime"
	"github.com/localspot/localspot-backend/internal/services"
	"github.com/localspot/localspot-backend/internal/utils"
)

// Initialize wires services, handlers and routes. The returned bridge is nil
// when Redis is not configured; the caller owns its shutdown.
func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, *realtime.Bridge) {
	// Realtime registry. With Redis configured, notifications fan out across
	// instances through the bridge; otherwise they stay process-local.
	hub := realtime.NewHub()
	var notifier realtime.Notifier = hub
	var bridge *realtime.Bridge
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		bridge = realtime.NewBridge(hub, client)
		if err := bridge.Start(); err != nil {
			logrus.WithError(err).Warn("Redis bridge unavailable, notifications stay process-local")
			bridge = nil
		} else {
			notifier = bridge
		}
	}

	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		logrus.WithError(err).Warn("S3 storage unavailable, uploads fall back to local URLs")
		storageService, _ = services.NewStorageService(&config.Config{Frontend: cfg.Frontend})
	}

	authService := services.NewAuthService(db, cfg)
	businessService := services.NewBusinessService(db)
	categoryService := services.NewCategoryService(db)
	reviewService := services.NewReviewService(db)
	leadService := services.NewLeadService(db, notifier)
	subscriptionService := services.NewSubscriptionService(db, cfg)
	adminService := services.NewAdminService(db, notifier)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	businessHandler := handlers.NewBusinessHandler(businessService, storageService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	leadHandler := handlers.NewLeadHandler(leadService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	adminHandler := handlers.NewAdminHandler(adminService, reviewService)
	realtimeHandler := handlers.NewRealtimeHandler(hub)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS([]string{cfg.Frontend.BaseURL}))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Realtime notifications
	r.GET("/ws/notifications", realtimeHandler.Serve)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Public discovery routes
		businesses := v1.Group("/businesses")
		{
			businesses.GET("/search", businessHandler.Search)
			businesses.GET("/featured", businessHandler.GetFeatured)
			businesses.GET("/slug/:slug", middleware.OptionalAuth(), middleware.OptionalVendor(db), businessHandler.GetBySlug)
			businesses.GET("/:id", middleware.OptionalAuth(), middleware.OptionalVendor(db), businessHandler.GetBusiness)
			businesses.GET("/:id/reviews", reviewHandler.GetBusinessReviews)

			// Vendor-owned routes
			protected := businesses.Group("")
			protected.Use(middleware.AuthRequired(), middleware.VendorRequired(db))
			{
				protected.POST("", businessHandler.CreateBusiness)
				protected.PUT("/:id", businessHandler.UpdateBusiness)
				protected.DELETE("/:id", businessHandler.DeleteBusiness)
				protected.PUT("/:id/hours", businessHandler.SetHours)
				protected.POST("/:id/photos", middleware.UploadRateLimit(), businessHandler.UploadPhotos)
				protected.GET("/:id/stats", businessHandler.GetStats)
				protected.GET("/:id/leads", leadHandler.GetBusinessLeads)
			}
		}

		// Category and city routes
		v1.GET("/categories", categoryHandler.GetTree)
		v1.GET("/categories/:slug", categoryHandler.GetBySlug)
		v1.GET("/cities", categoryHandler.GetCities)

		// Review routes
		reviews := v1.Group("/reviews")
		reviews.Use(middleware.AuthRequired())
		{
			reviews.POST("", reviewHandler.CreateReview)
			reviews.PUT("/:id", reviewHandler.UpdateReview)
			reviews.DELETE("/:id", reviewHandler.DeleteReview)
			reviews.POST("/:id/response", middleware.VendorRequired(db), reviewHandler.RespondToReview)
		}

		// Lead routes; creation is open to anonymous callers
		leads := v1.Group("/leads")
		{
			leads.POST("", middleware.LeadRateLimit(), middleware.OptionalAuth(), leadHandler.CreateLead)

			protected := leads.Group("")
			protected.Use(middleware.AuthRequired(), middleware.VendorRequired(db))
			{
				protected.GET("/:id", leadHandler.GetLead)
				protected.PATCH("/:id/status", leadHandler.UpdateLeadStatus)
			}
		}

		// Vendor routes
		vendor := v1.Group("/vendor")
		vendor.Use(middleware.AuthRequired(), middleware.VendorRequired(db))
		{
			vendor.GET("/businesses", businessHandler.GetMyBusinesses)
		}

		// Subscription routes
		v1.GET("/plans", subscriptionHandler.GetPlans)
		subscriptions := v1.Group("/subscriptions")
		subscriptions.Use(middleware.AuthRequired(), middleware.VendorRequired(db))
		{
			subscriptions.POST("", subscriptionHandler.Subscribe)
			subscriptions.GET("/current", subscriptionHandler.GetCurrent)
			subscriptions.GET("/transactions", subscriptionHandler.GetTransactions)
			subscriptions.DELETE("/:id", subscriptionHandler.Cancel)
		}

		// Stripe webhook; authenticated by signature, not by JWT
		v1.POST("/webhooks/stripe", subscriptionHandler.StripeWebhook)

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)
			admin.GET("/users", adminHandler.GetUsers)
			admin.PATCH("/users/:id/status", adminHandler.UpdateUserStatus)
			admin.GET("/businesses", adminHandler.GetBusinesses)
			admin.POST("/businesses/:id/approve", adminHandler.ApproveBusiness)
			admin.POST("/businesses/:id/reject", adminHandler.RejectBusiness)
			admin.POST("/businesses/:id/suspend", adminHandler.SuspendBusiness)
			admin.PATCH("/businesses/:id/flags", adminHandler.SetBusinessFlags)
			admin.GET("/reviews", adminHandler.GetReviewQueue)
			admin.POST("/reviews/:id/moderate", adminHandler.ModerateReview)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
			admin.POST("/categories", categoryHandler.CreateCategory)
			admin.PUT("/categories/:id", categoryHandler.UpdateCategory)
			admin.DELETE("/categories/:id", categoryHandler.DeleteCategory)
		}
	}

	return r, bridge
}
