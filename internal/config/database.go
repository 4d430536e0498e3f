package config

import (
	"fmt"
	"strconv"
	"time"

	"library-api/internal/infrastructure/database"
)

type durationEnv struct {
	key string
	def string
	dst *time.Duration
}

// LoadDatabaseConfig combines the database section with the pool, retry and
// timeout tuning read from the environment.
func (c *Config) LoadDatabaseConfig() (*database.DBConfig, error) {
	cfg := &database.DBConfig{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Username: c.Database.User,
		Password: c.Database.Password,
		DBName:   c.Database.Database,
		SSLMode:  c.Database.SSLMode,
		MaxConns: int32(c.Database.MaxConns),
		MinConns: int32(c.Database.MinConns),
	}

	maxRetries, err := strconv.Atoi(getEnv("DB_MAX_RETRIES", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_RETRIES: %w", err)
	}
	if maxRetries < 1 {
		return nil, fmt.Errorf("invalid DB_MAX_RETRIES: must be at least 1")
	}
	cfg.MaxRetries = maxRetries

	for _, d := range []durationEnv{
		{"DB_MAX_CONN_LIFETIME", "5m", &cfg.MaxConnLifetime},
		{"DB_MAX_CONN_IDLE_TIME", "1m", &cfg.MaxConnIdleTime},
		{"DB_HEALTH_CHECK_PERIOD", "1m", &cfg.HealthCheckPeriod},
		{"DB_RETRY_DELAY", "1s", &cfg.RetryDelay},
		{"DB_CONNECT_TIMEOUT", "10s", &cfg.ConnectTimeout},
	} {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	return cfg, nil
}
