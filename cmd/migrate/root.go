package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"library-api/internal/config"
	"library-api/internal/infrastructure/database"
	"library-api/pkg/logger"
)

var (
	// Global flags
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the library database schema",
	Long: `Apply, revert and inspect the schema migrations embedded in the API binary.

Connection settings are read from the same DB_* environment variables the
API server uses. An optional --env-file is loaded first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file to load before reading configuration")

	rootCmd.AddCommand(upCmd, downCmd, statusCmd)
}

// withMigrator hands fn a migrator for the environment's database and
// closes it afterwards.
func withMigrator(fn func(*database.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LoggerOptions())
	if err != nil {
		return fmt.Errorf("initialize loggers: %w", err)
	}
	defer log.Close()

	dbConfig, err := cfg.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("load database config: %w", err)
	}

	migrator, err := database.NewMigrator(dbConfig.MigrationURL(), log)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return fn(migrator)
}
