package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dronemarket_backend/internal/logger"
)

// Pinger - *sql.DB
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db          Pinger
	environment string
}

func NewHealthHandler(db Pinger, environment string) *HealthHandler {
	return &HealthHandler{db: db, environment: environment}
}

// RegisterRoutes - /health и /metrics вне /api
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	now := time.Now().UTC()
	if err := h.db.PingContext(ctx); err != nil {
		logger.CtxWithError(ctx, "health check failed", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":      "UNAVAILABLE",
			"timestamp":   now,
			"environment": h.environment,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   now,
		"environment": h.environment,
	})
}
