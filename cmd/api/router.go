package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"library-api/internal/shared/endpoint"
	"library-api/internal/shared/middleware"
	"library-api/pkg/container"
	"library-api/pkg/logger"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.Logger(c.Log),
		middleware.Metrics(c.Metrics),
		middleware.Recovery(c.Log),
		middleware.CORS(),
	)

	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))

	api := router.Group(c.Config.App.APIPrefix)
	{
		api.GET("/health", healthCheckHandler(c))

		setupAuthorRoutes(api, c)
		setupBookRoutes(api, c)
	}

	return router
}

// ========================================
// AUTHOR ROUTES
// ========================================
func setupAuthorRoutes(api *gin.RouterGroup, c *container.Container) {
	authors := api.Group("/authors")
	{
		authors.GET("", endpoint.Gin(c.AuthorHandler.Get))
		authors.POST("", endpoint.Gin(c.AuthorHandler.Create))
		authors.PUT("/:id", endpoint.Gin(c.AuthorHandler.Update))
		authors.DELETE("/:id", endpoint.Gin(c.AuthorHandler.Delete))
	}
}

// ========================================
// BOOK ROUTES
// ========================================
func setupBookRoutes(api *gin.RouterGroup, c *container.Container) {
	books := api.Group("/books")
	{
		books.GET("", endpoint.Gin(c.BookHandler.Get))
		books.POST("", endpoint.Gin(c.BookHandler.Create))
		books.PUT("/:id", endpoint.Gin(c.BookHandler.Update))
		books.DELETE("/:id", endpoint.Gin(c.BookHandler.Delete))
	}
}

func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		if c.DB == nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		if err := c.DB.Ping(pingCtx); err != nil {
			c.Log.LogSystem(logger.LevelWarn, "Health check failed", logger.Fields{logger.ErrorKey: err})
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
