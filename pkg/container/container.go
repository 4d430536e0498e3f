package container

import (
	"context"
	"fmt"

	"library-api/internal/config"
	"library-api/internal/infrastructure/database"
	"library-api/internal/shared/controller"
	"library-api/pkg/logger"
	"library-api/pkg/metrics"

	authorHandler "library-api/internal/domains/author/handler"
	authorRepo "library-api/internal/domains/author/repository"
	bookHandler "library-api/internal/domains/book/handler"
	bookRepo "library-api/internal/domains/book/repository"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. Every member is a
// process-scoped singleton built once at startup.
type Container struct {
	// Infrastructure
	Config  *config.Config
	Log     *logger.Loggers
	Metrics *metrics.Metrics
	DB      *database.PostgresDB

	// Store gateways
	AuthorRepo authorRepo.Repository
	BookRepo   bookRepo.Repository

	// HTTP handlers
	AuthorHandler *authorHandler.AuthorHandler
	BookHandler   *bookHandler.BookHandler
}

// NewContainer builds the graph in dependency order:
// config → loggers → database → repositories → handlers.
// A database that cannot be reached is fatal: the error is logged and returned.
func NewContainer(ctx context.Context) (*Container, error) {
	c := &Container{}

	// ========================================
	// STEP 1: CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	// ========================================
	// STEP 2: LOGGERS + METRICS
	// ========================================
	c.Metrics = metrics.New()

	opts := cfg.LoggerOptions()
	opts.BusinessHooks = append(opts.BusinessHooks, c.Metrics.BusinessEventHook())
	log, err := logger.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loggers: %w", err)
	}
	c.Log = log
	log.LogSystem(logger.LevelInfo, "Configuration loaded", logger.Fields{
		"environment": cfg.App.Environment,
		"logLevel":    log.Threshold().String(),
	})

	// ========================================
	// STEP 3: DATABASE
	// ========================================
	dbConfig, err := cfg.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig, log)
	if err := db.Connect(ctx); err != nil {
		log.LogSystem(logger.LevelError, "Error connecting to PostgreSQL", logger.Fields{logger.ErrorKey: err})
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db

	if cfg.Database.AutoMigrate {
		if err := migrate(dbConfig, log); err != nil {
			log.LogSystem(logger.LevelError, "Error applying migrations", logger.Fields{logger.ErrorKey: err})
			db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	// ========================================
	// STEP 4: REPOSITORIES + HANDLERS
	// ========================================
	c.AuthorRepo = authorRepo.NewPostgresRepository(db.Pool)
	c.BookRepo = bookRepo.NewPostgresRepository(db.Pool)

	base := controller.NewBase(log)
	c.AuthorHandler = authorHandler.NewAuthorHandler(base, c.AuthorRepo)
	c.BookHandler = bookHandler.NewBookHandler(base, c.BookRepo)

	return c, nil
}

func migrate(dbConfig *database.DBConfig, log *logger.Loggers) error {
	migrator, err := database.NewMigrator(dbConfig.MigrationURL(), log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	_, err = migrator.Up()
	return err
}

// Cleanup releases the database pool and flushes log files.
func (c *Container) Cleanup() {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Log != nil {
		_ = c.Log.Close()
	}
}
