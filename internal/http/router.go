package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"akwaabamarket.com/app/internal/config"
	"akwaabamarket.com/app/internal/http/handlers"
	"akwaabamarket.com/app/internal/http/middleware"
	"akwaabamarket.com/app/internal/modules/events"
	"akwaabamarket.com/app/internal/modules/orders"
	"akwaabamarket.com/app/internal/modules/payments"
	"akwaabamarket.com/app/internal/modules/products"
)

func NewRouter(logger *slog.Logger, db *gorm.DB, cfg *config.Config, provider payments.Provider, pub events.Publisher) *gin.Engine {
	if pub == nil {
		pub = events.NoopPublisher{}
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.ErrorHandler(logger))
	r.Use(middleware.Prometheus())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	orderSvc := orders.NewService(db, products.NewRepo(db))
	paySvc := payments.NewService(db, provider)
	webhookSvc := payments.NewWebhookService(db, pub)
	webhookSvc.SetLogger(logger)

	oh := handlers.NewOrdersHandler(logger, db, orderSvc, paySvc, pub, cfg.Currency)
	ph := handlers.NewProductsHandler(logger, db)
	wh := handlers.NewWebhookHandler(logger, provider, webhookSvc)

	// Provider callbacks carry their own authentication (signature).
	r.POST("/webhooks/paystack", wh.Handle)

	// Catalog browsing is public.
	r.GET("/products", ph.List)
	r.GET("/products/:id", ph.Detail)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth(cfg.JWTSecret))
	{
		api.POST("/orders", oh.Create)
		api.GET("/orders/mine", oh.ListMine)
		api.GET("/orders/:id", oh.Detail)
		api.POST("/orders/:id/pay", oh.Pay)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/orders", oh.ListAll)
			admin.GET("/orders/summary", oh.Summary)
			admin.PUT("/orders/:id/deliver", oh.MarkDelivered)
			admin.POST("/products", ph.Create)
		}
	}

	return r
}
