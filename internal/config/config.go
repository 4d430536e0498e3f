package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"library-api/pkg/logger"
)

var apiPrefixPattern = regexp.MustCompile(`^/[A-Za-z0-9/_-]*$`)

// Config holds the application configuration, populated from environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
}

type AppConfig struct {
	Name            string
	Environment     string // development, test, production
	Port            string
	APIPrefix       string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

type LogConfig struct {
	// Level is empty unless LOG_LEVEL is set; the logger then picks the
	// environment default.
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxAgeDays int
	Compress   bool
}

// IsProduction reports whether the production-like mode is active.
func (c *Config) IsProduction() bool {
	return c.App.Environment == logger.EnvProduction
}

// LoggerOptions maps the log section onto logger.Options.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Environment: c.App.Environment,
		Level:       c.Log.Level,
		Dir:         c.Log.Dir,
		MaxSizeMB:   c.Log.MaxSizeMB,
		MaxAgeDays:  c.Log.MaxAgeDays,
		Compress:    c.Log.Compress,
	}
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "Library API"),
			Environment:     getEnv("APP_ENV", logger.EnvDevelopment),
			Port:            getEnv("APP_PORT", "3200"),
			APIPrefix:       getEnv("API_PREFIX", "/api"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", ""),
			Database:    getEnv("DB_NAME", "library"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvInt("DB_MAX_CONNS", 25),
			MinConns:    getEnvInt("DB_MIN_CONNS", 5),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", ""),
			Dir:        getEnv("LOG_DIR", "logs"),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 20),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 14),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks every section; production additionally requires a database password.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.App),
		validation.Field(&c.Database),
		validation.Field(&c.Log),
	); err != nil {
		return err
	}
	if c.IsProduction() && c.Database.Password == "" {
		return errors.New("DB_PASSWORD must be set in production")
	}
	return nil
}

func (a AppConfig) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Environment, validation.Required,
			validation.In(logger.EnvDevelopment, "test", logger.EnvProduction)),
		validation.Field(&a.Port, validation.Required, is.Port),
		validation.Field(&a.APIPrefix, validation.Required, validation.Match(apiPrefixPattern)),
		validation.Field(&a.ShutdownTimeout, validation.Min(time.Second)),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Host, validation.Required),
		validation.Field(&d.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&d.User, validation.Required),
		validation.Field(&d.Database, validation.Required),
		validation.Field(&d.SSLMode, validation.In("disable", "allow", "prefer", "require", "verify-ca", "verify-full")),
		validation.Field(&d.MaxConns, validation.Min(1)),
		validation.Field(&d.MinConns, validation.Min(0), validation.Max(d.MaxConns)),
	)
}

func (l LogConfig) Validate() error {
	levels := make([]any, 0, len(logger.LevelNames()))
	for _, n := range logger.LevelNames() {
		levels = append(levels, n)
	}
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In(levels...)),
		validation.Field(&l.Dir, validation.Required),
		validation.Field(&l.MaxSizeMB, validation.Min(1)),
		validation.Field(&l.MaxAgeDays, validation.Min(0)),
	)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
