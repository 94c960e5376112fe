package routes

import (
	"github.com/gin-gonic/gin"

	"dronemarket_backend/internal/handlers"
	"dronemarket_backend/internal/logger"
	"dronemarket_backend/internal/middleware"
	"dronemarket_backend/ws"
)

// RegisterRoutes регистрирует все HTTP и WebSocket маршруты.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	health *handlers.HealthHandler,
	hub *ws.Hub,
	requireAuth gin.HandlerFunc,
	limiter *middleware.IPRateLimiter,
) {
	// /health и /metrics вне лимита
	health.RegisterRoutes(ginRouter)

	// вебхуки провайдера тоже вне лимита: пачка доставок идет с одного IP
	appHandlers.RegisterWebhookRoutes(ginRouter.Group("/api/v1"))

	api := ginRouter.Group("/api/v1")
	if limiter != nil {
		api.Use(middleware.RateLimitMiddleware(limiter))
	}
	appHandlers.RegisterRoutes(api)

	if hub != nil {
		ginRouter.GET("/ws", requireAuth, hub.ServeWS)
		logger.Info("WebSocket route /ws registered")
	}
}
