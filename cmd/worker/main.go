package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sendrelay/sendrelay/internal/config"
	"github.com/sendrelay/sendrelay/internal/dispatch"
	"github.com/sendrelay/sendrelay/internal/domain"
	"github.com/sendrelay/sendrelay/internal/infra/postgresql"
	"github.com/sendrelay/sendrelay/internal/infra/postgresql/migrations"
	infraredis "github.com/sendrelay/sendrelay/internal/infra/redis"
	"github.com/sendrelay/sendrelay/internal/observability"
	"github.com/sendrelay/sendrelay/internal/queue"
	"github.com/sendrelay/sendrelay/internal/repository"
	"github.com/sendrelay/sendrelay/internal/sender"
	"github.com/sendrelay/sendrelay/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	publisher := queue.NewRabbitMQPublisher(rabbit)
	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)

	notificationRepo := repository.NewGormNotificationRepo(db)
	inboxRepo := repository.NewGormInboxRepo(db)

	emailSender, err := sender.NewEmailSender(sender.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		UseTLS:   cfg.SMTPUseTLS,
	})
	if err != nil {
		logger.Fatal("email sender initialization failed", zap.Error(err))
	}

	smsSender, err := sender.NewSMSSender(sender.SMSConfig{
		Endpoint:   cfg.SMSGatewayURL,
		AuthToken:  cfg.SMSAuthToken,
		FromNumber: cfg.SMSFromNumber,
	})
	if err != nil {
		logger.Fatal("sms sender initialization failed", zap.Error(err))
	}

	inAppSender, err := sender.NewInAppSender(inboxRepo)
	if err != nil {
		logger.Fatal("in-app sender initialization failed", zap.Error(err))
	}

	senders := sender.NewRegistry()
	senders.Register(domain.ChannelEmail, emailSender)
	senders.Register(domain.ChannelSMS, smsSender)
	senders.Register(domain.ChannelInApp, inAppSender)

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	policy := dispatch.RetryPolicy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		Factor:      cfg.BackoffFactor,
		MaxDelay:    cfg.MaxDelay,
	}

	worker, err := service.NewWorkerService(
		notificationRepo,
		consumer,
		publisher,
		senders,
		rateLimiter,
		policy,
		cfg.SendTimeout,
		cfg.WorkerConcurrency,
		logger,
	)
	if err != nil {
		logger.Fatal("worker initialization failed", zap.Error(err))
	}
	metrics := observability.NewMetrics()
	worker.SetMetrics(metrics)

	sweeper, err := service.NewSweeper(notificationRepo, publisher, cfg.SweepInterval, 0, logger)
	if err != nil {
		logger.Fatal("sweeper initialization failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Start(groupCtx) })
	g.Go(func() error { return sweeper.Start(groupCtx) })
	g.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	logger.Info("worker started",
		zap.Int("concurrency", cfg.WorkerConcurrency),
		zap.Int("maxAttempts", cfg.MaxAttempts),
		zap.Int("metricsPort", cfg.MetricsPort),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("worker stopped with error", zap.Error(err))
	}

	logger.Info("worker stopped")
}
