package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"library-api/internal/shared/response"
	"library-api/pkg/logger"
)

// Recovery is the last line of defense: a panic that escapes a handler is
// logged and answered with the generic 500.
func Recovery(log *logger.Loggers) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.LogSystem(logger.LevelError, "Unhandled error", logger.Fields{
					"request_id": c.GetString(RequestIDKey),
					"endpoint":   c.Request.URL.RequestURI(),
					"method":     c.Request.Method,
					"panic":      fmt.Sprint(r),
					"stack":      string(debug.Stack()),
				})

				c.AbortWithStatusJSON(http.StatusInternalServerError, response.Generic())
			}
		}()

		c.Next()
	}
}
