package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"dailydevq/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "dailydevq",
	Short:         "DailyDevQ newsletter API",
	Long:          "Newsletter subscriptions and Google login for DailyDevQ",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, initTableCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig lee .env si existe y luego el entorno.
func loadConfig() (*config.Config, error) {
	loadDotEnv()
	return config.LoadConfig()
}

// loadMaintenanceConfig no valida STORE_BACKEND; cada comando exige su backend.
func loadMaintenanceConfig(backend string) (*config.Config, error) {
	loadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateBackend(backend); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: loading .env: %v", err)
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
