package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"dronemarket_backend/internal/metrics"
)

// MetricsMiddleware - счетчик и гистограмма по шаблону маршрута (не по сырому пути)
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
