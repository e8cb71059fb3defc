package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wyn/config"
	"wyn/internal/domain"
	"wyn/internal/handler"
	"wyn/internal/middleware"
	"wyn/internal/repository"
	"wyn/internal/service"
	"wyn/internal/ws"
	"wyn/pkg/cloudinary"
	"wyn/pkg/payment"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, gateway payment.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.MercadoPago.ClientBaseURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimit(middleware.NewIPRateLimiter(100, 60*time.Second)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	providerRepo := repository.NewProviderRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	hub := ws.NewHub()

	// Services
	guard := service.NewGuard(userRepo)
	notifSvc := service.NewNotificationService(notificationRepo)
	authSvc := service.NewAuthService(userRepo, providerRepo, &cfg.JWT)
	workflowSvc := service.NewWorkflowService(requestRepo, reviewRepo, catalogRepo, userRepo, providerRepo, notifSvc, guard, gateway, cfg.MercadoPago)
	querySvc := service.NewQueryService(requestRepo, reviewRepo, messageRepo, guard)
	chatSvc := service.NewChatService(messageRepo, requestRepo, userRepo, providerRepo, notifSvc, guard, hub)
	catalogSvc := service.NewCatalogService(catalogRepo)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo)
	profileSvc := service.NewProfileService(userRepo, providerRepo, reviewRepo, requestRepo)
	adminSvc := service.NewAdminService(adminRepo, userRepo, providerRepo, reviewRepo, catalogRepo, guard)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	requestHandler := handler.NewRequestHandler(workflowSvc, querySvc, cloud, &cfg.Upload)
	webhookHandler := handler.NewPaymentWebhookHandler(workflowSvc, gateway, &cfg.Payment)
	chatHandler := handler.NewChatHandler(chatSvc, querySvc)
	notificationHandler := handler.NewNotificationHandler(notifSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	profileHandler := handler.NewProfileHandler(profileSvc, cloud, &cfg.Upload)
	adminHandler := handler.NewAdminHandler(adminSvc, workflowSvc, querySvc)

	authMw := middleware.AuthRequired(&cfg.JWT)
	adminMw := middleware.AdminRequired(guard)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/clients/register", authHandler.RegisterClient)
			authGroup.POST("/clients/login", authHandler.LoginClient)
			authGroup.POST("/providers/register", authHandler.RegisterProvider)
			authGroup.POST("/providers/login", authHandler.LoginProvider)
			authGroup.POST("/refresh", authHandler.Refresh)
		}

		// Public catalog and provider surface
		api.GET("/services", catalogHandler.Browse)
		api.GET("/providers/:id", profileHandler.GetProvider)
		api.GET("/providers/:id/services", catalogHandler.ListByProvider)
		api.GET("/providers/:id/availability", availabilityHandler.Get)

		api.POST("/webhooks/payment", webhookHandler.Handle)

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", profileHandler.Me)
			me.PATCH("/profile", profileHandler.Update)
			me.POST("/profile/photo", profileHandler.UploadPhoto)
			me.GET("/notifications", notificationHandler.List)
			me.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
			me.GET("/notifications/unread-count", notificationHandler.UnreadCount)
			me.GET("/messages/unread-count", chatHandler.UnreadCount)
		}

		requests := api.Group("/requests")
		requests.Use(authMw)
		{
			requests.POST("", requestHandler.Create)
			requests.GET("", requestHandler.ListMine)
			requests.GET("/pending-review", requestHandler.PendingReview)
			requests.GET("/:id", requestHandler.Get)
			requests.POST("/:id/accept", requestHandler.Accept)
			requests.POST("/:id/reject", requestHandler.Reject)
			requests.POST("/:id/complete", requestHandler.Complete)
			requests.POST("/:id/review", requestHandler.Review)
			requests.POST("/:id/cancel", requestHandler.Cancel)
			requests.DELETE("/:id", requestHandler.Delete)
			requests.GET("/:id/proofs", requestHandler.Proofs)
			requests.GET("/:id/messages", chatHandler.List)
			requests.POST("/:id/messages", chatHandler.Send)
		}

		provider := api.Group("/provider")
		provider.Use(authMw, middleware.RequireType(domain.PrincipalProvider))
		{
			provider.GET("/dashboard", requestHandler.Dashboard)
			provider.GET("/reviews", requestHandler.MyReviews)
			provider.GET("/services", catalogHandler.ListMine)
			provider.POST("/services", catalogHandler.Create)
			provider.PUT("/services/:id", catalogHandler.Update)
			provider.DELETE("/services/:id", catalogHandler.Delete)
			provider.PUT("/availability", availabilityHandler.Save)
			provider.POST("/availability/periods", availabilityHandler.AddPeriod)
			provider.DELETE("/availability/periods/:id", availabilityHandler.RemovePeriod)
		}

		admin := api.Group("/admin")
		admin.Use(authMw, adminMw)
		{
			admin.GET("/stats", adminHandler.Stats)
			admin.GET("/requests", adminHandler.ListRequests)
			admin.PATCH("/requests/:id", adminHandler.OverrideRequest)
			admin.GET("/users", adminHandler.ListUsers)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.GET("/providers", adminHandler.ListProviders)
			admin.DELETE("/services/:id", adminHandler.DeleteService)
			admin.DELETE("/providers/:id", adminHandler.DeleteProvider)
			admin.GET("/reviews", adminHandler.ListReviews)
			admin.PATCH("/reviews/:id", adminHandler.ModerateReview)
			admin.DELETE("/reviews/:id", adminHandler.DeleteReview)
		}

		api.GET("/ws/chat", handler.UpgradeChatWS(&cfg.JWT, hub, chatSvc))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
