package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"github.com/ignatzorin/sportmarket-backend/internal/config"
	"github.com/ignatzorin/sportmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/handler"
	"github.com/ignatzorin/sportmarket-backend/internal/service"
)

type Handlers struct {
	Listing *handler.ListingHandler
	Payment *handler.PaymentHandler
	WS      *handler.WSHandler
	Health  *handler.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager, limiterStore limiter.Store) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	if cfg.MediaDriver == config.MediaDriverLocal {
		r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))
	}

	paidActionLimit := middleware.RateLimitMiddleware(limiterStore, cfg.RateLimitLimit, cfg.RateLimitPeriod)

	api := r.Group("/api")

	// Вебхук подписан секретом провайдера: без токена и без лимита, подписанное
	// уведомление всегда получает ответ обработчика.
	api.POST("/payments/webhook", h.Payment.Webhook)
	api.GET("/ws", h.WS.Handle)

	// Публичные маршруты: токен необязателен, но влияет на видимость контакта.
	public := api.Group("/")
	public.Use(middleware.OptionalAuthMiddleware(tokenManager))
	{
		public.GET("/listings", h.Listing.ListListings)
		public.GET("/listings/:id", middleware.UUIDValidator("id"), h.Listing.GetListing)
	}

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/listings/my", h.Listing.ListMyListings)
		protected.POST("/listings", h.Listing.CreateListing)
		protected.PATCH("/listings/:id", middleware.UUIDValidator("id"), h.Listing.UpdateListing)
		protected.DELETE("/listings/:id", middleware.UUIDValidator("id"), h.Listing.DeleteListing)
		protected.PUT("/listings/:id/media", middleware.UUIDValidator("id"), h.Listing.ReplaceMedia)
		protected.POST("/listings/:id/pay", middleware.UUIDValidator("id"), paidActionLimit, h.Listing.PayListing)
		protected.POST("/listings/:id/promote", middleware.UUIDValidator("id"), paidActionLimit, h.Listing.PromoteListing)
		protected.POST("/listings/:id/unlock-contact", middleware.UUIDValidator("id"), paidActionLimit, h.Listing.UnlockContact)

		protected.GET("/payments/my", h.Payment.ListMyPayments)
	}

	return r
}
