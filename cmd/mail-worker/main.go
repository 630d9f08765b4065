package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ms-meetup/internal/config"
	"ms-meetup/internal/kafka"
	"ms-meetup/internal/logger"
	"ms-meetup/internal/mail"
	"ms-meetup/internal/metrics"
)

func main() {
	logger := logger.NewLogger("mail-worker")
	defer logger.Close()

	logger.Info("APP", "Starting Mail Worker initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)

	if !cfg.Kafka.Enabled {
		logger.Fatal("CONFIG", "KAFKA_ENABLED=false, the mail worker has nothing to consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := mail.NewRedisClient(ctx, cfg.Redis.Addr, logger)
	if err != nil {
		logger.Fatal("REDIS", fmt.Sprintf("Redis connection error: %v", err))
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	worker := &mail.Worker{
		Mailer:   mail.NewSMTPMailer(cfg.Email),
		Deduper:  mail.NewRedisDeduper(redisClient, cfg.Redis.MailDedup),
		Location: cfg.App.Location(),
		Logger:   logger,
		Metrics:  metrics.New(registry),
	}

	if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.MailJobs}, logger); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.MailJobs, cfg.Kafka.GroupID, logger)
	consumer.OnGiveUp = worker.GiveUp
	defer consumer.Close()

	metricsServer := &http.Server{
		Addr:    cfg.Worker.MetricsPort,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		logger.Info("HTTP", fmt.Sprintf("Worker metrics on %s/metrics", cfg.Worker.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP", fmt.Sprintf("Metrics server error: %v", err))
		}
	}()

	logger.Info("KAFKA", fmt.Sprintf("Consuming %s as group %s", cfg.Kafka.Topics.MailJobs, cfg.Kafka.GroupID))
	if err := consumer.Run(ctx, worker.Handle); err != nil {
		logger.Error("KAFKA", fmt.Sprintf("Consumer stopped: %v", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Metrics server shutdown failed: %v", err))
	}
	logger.Info("APP", "✅ Mail Worker shutdown complete")
}
