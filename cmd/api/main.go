package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"library-api/pkg/container"
	"library-api/pkg/logger"
)

func main() {
	// .env is optional; production relies on the real environment
	_ = godotenv.Load()

	if os.Getenv("APP_ENV") == logger.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	appContainer, err := container.NewContainer(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize container: %v\n", err)
		os.Exit(1)
	}
	defer appContainer.Log.CapturePanic()

	os.Exit(Serve(appContainer))
}
