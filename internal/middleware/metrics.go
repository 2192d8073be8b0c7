package middleware

import (
	"file_portal/internal/metrics" // Prometheus collectors
	"strconv"                      // Status code formatting
	"time"                         // Latency measurement

	"github.com/gin-gonic/gin" // Gin web framework
)

// Metrics records request count and latency per matched route
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath() // Route pattern keeps label cardinality bounded
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
