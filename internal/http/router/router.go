package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proposalkit/backend/internal/config"
	"github.com/proposalkit/backend/internal/http/handlers"
	"github.com/proposalkit/backend/internal/http/middleware"
	"github.com/proposalkit/backend/internal/service"
)

// SetupRouter собирает HTTP поверхность приложения.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	proposalHandler *handlers.ProposalHandler,
	publicHandler *handlers.PublicHandler,
	invoiceHandler *handlers.InvoiceHandler,
	notificationHandler *handlers.NotificationHandler,
	dashboardHandler *handlers.DashboardHandler,
	profileHandler *handlers.ProfileHandler,
	billingHandler *handlers.BillingHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(5, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Клиентская сторона: slug — capability, авторизации нет,
	// но перебор slug'ов душится rate limit'ом.
	publicGroup := api.Group("/public")
	publicGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		publicGroup.GET("/proposals/:slug", publicHandler.View)
		publicGroup.POST("/proposals/:slug/accept", publicHandler.Accept)
		publicGroup.POST("/proposals/:slug/reject", publicHandler.Reject)
	}

	api.POST("/webhooks/billing", billingHandler.Webhook)
	api.GET("/ws", wsHandler.Connect)

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/proposals/generate", proposalHandler.Generate)
		protected.GET("/proposals", proposalHandler.List)
		protected.GET("/proposals/quota", proposalHandler.Quota)
		protected.GET("/proposals/:id", middleware.UUIDValidator("id"), proposalHandler.Get)
		protected.PUT("/proposals/:id", middleware.UUIDValidator("id"), proposalHandler.Update)
		protected.DELETE("/proposals/:id", middleware.UUIDValidator("id"), proposalHandler.Delete)
		protected.POST("/proposals/:id/send", middleware.UUIDValidator("id"), proposalHandler.Send)
		protected.POST("/proposals/:id/resend", middleware.UUIDValidator("id"), proposalHandler.Send)
		protected.POST("/proposals/:id/duplicate", middleware.UUIDValidator("id"), proposalHandler.Duplicate)

		protected.GET("/invoices", invoiceHandler.List)
		protected.GET("/invoices/:id", middleware.UUIDValidator("id"), invoiceHandler.Get)
		protected.PUT("/invoices/:id/status", middleware.UUIDValidator("id"), invoiceHandler.UpdateStatus)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)

		protected.GET("/dashboard", dashboardHandler.Summary)

		protected.GET("/profile", profileHandler.Get)
		protected.PUT("/profile", profileHandler.Update)
		protected.POST("/profile/logo", profileHandler.UploadLogo)
	}

	return r
}
