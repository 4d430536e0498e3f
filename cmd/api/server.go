package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-api/pkg/container"
	"library-api/pkg/logger"
)

// Serve runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests for the configured grace period. It returns the process exit code.
func Serve(c *container.Container) int {
	defer c.Cleanup()

	log := c.Log
	srv := &http.Server{
		Addr:           ":" + c.Config.App.Port,
		Handler:        SetupRouter(c),
		ReadTimeout:    30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		defer log.CapturePanic()

		log.LogSystem(logger.LevelInfo, "Server is running on port "+c.Config.App.Port, logger.Fields{
			"environment": c.Config.App.Environment,
			"prefix":      c.Config.App.APIPrefix,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		log.LogSystem(logger.LevelFatal, "Server error", logger.Fields{logger.ErrorKey: err})
		return 1
	case <-quit:
	}

	log.LogSystem(logger.LevelInfo, "Received shutdown signal, shutting down gracefully", nil)

	ctx, cancel := context.WithTimeout(context.Background(), c.Config.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.LogSystem(logger.LevelError, "Could not close connections in time, forcefully shutting down",
			logger.Fields{logger.ErrorKey: err})
		_ = srv.Close()
		return 1
	}

	log.LogSystem(logger.LevelInfo, "Closed out remaining connections", nil)
	return 0
}
