package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"library-api/pkg/logger"
)

// Logger writes an info entry "<METHOD> <URI>" on the system channel when a
// request arrives, so requests blocked on the store still leave a trace. A debug
// entry with status and latency follows once the handler returns.
func Logger(log *logger.Loggers) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		line := c.Request.Method + " " + c.Request.URL.RequestURI()
		requestID := c.GetString(RequestIDKey)

		log.LogSystem(logger.LevelInfo, line, logger.Fields{
			"request_id": requestID,
			"ip":         clientIP(c),
		})

		c.Next()

		fields := logger.Fields{
			"request_id": requestID,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		log.LogSystem(logger.LevelDebug, line+" completed", fields)
	}
}
