package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/centry-onboarding/internal/application/notification"
	"github.com/centry-onboarding/internal/config"
	"github.com/centry-onboarding/internal/infrastructure/dynamo"
	"github.com/centry-onboarding/internal/infrastructure/postgres"
	s3infra "github.com/centry-onboarding/internal/infrastructure/s3"
	"github.com/centry-onboarding/internal/infrastructure/smtp"
	"github.com/centry-onboarding/internal/infrastructure/sns"
	"github.com/centry-onboarding/internal/pkg/credential"
	"github.com/centry-onboarding/internal/pkg/logging"
	transporthttp "github.com/centry-onboarding/internal/transport/http"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	templates, err := loadTemplates(ctx, cfg)
	if err != nil {
		return err
	}

	gwDeps := notification.GatewayDeps{
		Mailer:    smtp.NewMailer(cfg),
		Templates: templates,
		Logger:    logger,
	}
	// SNS SMS fallback (optional; email-only when unavailable).
	if cfg.SMSFallbackEnabled {
		if sender, err := sns.NewSender(ctx, cfg); err == nil {
			gwDeps.SMSSender = sender
		} else {
			logger.Warn("SNS sender not available", zap.Error(err))
		}
	}

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Accounts: store,
		Notifier: notification.NewGateway(gwDeps),
		Hasher:   credential.NewHasher(cfg.BcryptCost),
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.AppPort), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// openStore connects the account store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (transporthttp.AccountStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewAccountRepo(db, db), func() { _ = db.Close() }, nil
	default:
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DynamoBootstrap {
			dynamo.Bootstrap(ctx, client, cfg.DynamoTables, logger)
		}
		return dynamo.NewAccountRepo(client, cfg.DynamoTables.Accounts), func() {}, nil
	}
}

// loadTemplates reads email templates from S3 when TEMPLATE_BUCKET is set.
func loadTemplates(ctx context.Context, cfg *config.Config) (*notification.Templates, error) {
	if cfg.TemplateBucket == "" {
		return notification.DefaultTemplates()
	}
	client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return notification.LoadTemplates(loadCtx, s3infra.NewTemplateStore(client, cfg.TemplateBucket, cfg.TemplatePrefix))
}
