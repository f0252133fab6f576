package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/infrastructure/metrics"
)

// Metrics records the count, latency and in-flight gauge of requests.
// Routes are labelled by pattern; unmatched requests share one label.
func Metrics(registry *metrics.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := registry.RequestStarted()
		c.Next()
		done(c.Request.Method, c.FullPath(), c.Writer.Status())
	}
}
