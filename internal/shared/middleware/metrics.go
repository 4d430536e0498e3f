package middleware

import (
	"github.com/gin-gonic/gin"

	"library-api/pkg/metrics"
)

// Metrics records request count and latency labelled by the matched route.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		done := m.RequestStarted(c.Request.Method)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		done(route, c.Writer.Status())
	}
}
