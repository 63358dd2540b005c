package handler

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"financechain/pkg/metrics"
	"financechain/pkg/middleware"
	"financechain/pkg/service"
)

type Handler struct {
	service *service.Service
	metrics *metrics.Metrics
}

func NewHandler(service *service.Service, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		metrics: metrics,
	}
}

// InitRoute builds the router. An origin of "*" allows every origin.
func (h *Handler) InitRoute(allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(h.metrics))
	router.Use(cors.New(corsConfig(allowOrigins)))

	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)

		transactions := api.Group("/transactions")
		{
			transactions.GET("", h.GetTransactions)
			transactions.POST("", h.AddTransaction)
		}

		payments := api.Group("/payments")
		{
			payments.GET("", h.ListPayments)
			payments.POST("", h.CreatePayment)
			payments.GET("/:id", h.GetPayment)
			payments.POST("/:id/confirm", h.ConfirmPayment)
		}
	}
	return router
}

func corsConfig(allowOrigins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
	}
	for _, origin := range allowOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(allowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = allowOrigins
	cfg.AllowCredentials = true
	return cfg
}
