package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dailydevq/internal/config"
	"dailydevq/internal/db"
	"dailydevq/internal/dynamo"
	"dailydevq/internal/email"
	"dailydevq/internal/google"
	apihttp "dailydevq/internal/http"
	"dailydevq/internal/metrics"
	"dailydevq/internal/repository"
	"dailydevq/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	users, closeStore, err := openUserStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		recorder       metrics.Recorder = metrics.Nop{}
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewCollector(reg)
		metricsHandler = metrics.Handler(reg)
	}

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured; google login will fail")
	}
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		logger.Warn("google oauth credentials not configured")
	}

	userSvc := service.NewUserService(logger, users, emailSender, recorder)
	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.TokenTTL())
	googleClient := google.NewClient(google.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
	}, logger)

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := apihttp.NewRouter(logger, apihttp.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins(),
		JWT:            jwtSvc,
		Metrics:        recorder,
		MetricsHandler: metricsHandler,
	},
		apihttp.NewSubscribeHandler(logger, userSvc),
		apihttp.NewAuthHandler(logger, googleClient, userSvc, jwtSvc, recorder),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("store", cfg.StoreBackend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openUserStore elige el backend segun STORE_BACKEND.
func openUserStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.UserRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{})
		if err != nil {
			return nil, nil, fmt.Errorf("db connect: %w", err)
		}
		return repository.NewPgUserRepository(pool), pool.Close, nil

	case config.BackendDynamoDB:
		client, err := dynamo.NewClient(ctx, dynamo.ClientOptions{
			Region:   cfg.AWSRegion,
			Profile:  cfg.AWSProfile,
			Endpoint: cfg.DynamoDBEndpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewDynamoUserRepository(client, repository.DynamoTableOptions{
			Table:           cfg.UsersTableName(),
			EmailIndex:      cfg.DynamoDBEmailIndex,
			ExternalIDIndex: cfg.DynamoDBExternalIDIndex,
		})
		if repo.ScanFallback() {
			logger.Warn("DYNAMODB_EXTERNAL_ID_INDEX not set; external id lookups will scan the users table",
				zap.String("table", cfg.UsersTableName()))
		}
		return repo, func() {}, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return repository.NewRedisUserRepository(client, cfg.RedisKeyPrefix), func() { _ = client.Close() }, nil

	case config.BackendMemory:
		logger.Warn("using in-memory user store; data is lost on restart")
		return repository.NewMemoryUserRepository(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
