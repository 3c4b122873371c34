package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dailydevq/internal/config"
	"dailydevq/internal/db"
	"dailydevq/internal/dynamo"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadMaintenanceConfig(config.BackendPostgres)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info("migrations applied")
		return nil
	},
}

var initTableCmd = &cobra.Command{
	Use:   "init-table",
	Short: "Create the DynamoDB users table if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadMaintenanceConfig(config.BackendDynamoDB)
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client, err := dynamo.NewClient(ctx, dynamo.ClientOptions{
			Region:   cfg.AWSRegion,
			Profile:  cfg.AWSProfile,
			Endpoint: cfg.DynamoDBEndpoint,
		})
		if err != nil {
			return err
		}

		table := cfg.UsersTableName()
		created, err := dynamo.EnsureUsersTable(ctx, client, dynamo.TableSpec{
			Name:            table,
			EmailIndex:      cfg.DynamoDBEmailIndex,
			ExternalIDIndex: cfg.DynamoDBExternalIDIndex,
		})
		if err != nil {
			return fmt.Errorf("init table %s: %w", table, err)
		}
		if created {
			logger.Info("users table created", zap.String("table", table))
		} else {
			logger.Info("users table already exists", zap.String("table", table))
		}
		return nil
	},
}
