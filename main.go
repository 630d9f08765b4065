package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-meetup/internal/auth"
	"ms-meetup/internal/config"
	"ms-meetup/internal/database/migrations"
	"ms-meetup/internal/kafka"
	"ms-meetup/internal/logger"
	"ms-meetup/internal/meetup"
	meetup_db "ms-meetup/internal/meetup/db"
	"ms-meetup/internal/meetup/meetup_api"
	"ms-meetup/internal/metrics"
	"ms-meetup/internal/middleware"
	"ms-meetup/internal/notification"
	"ms-meetup/internal/subscription"
	subscription_db "ms-meetup/internal/subscription/db"
	"ms-meetup/internal/subscription/subscription_api"
	"ms-meetup/internal/utils"
	"ms-meetup/internal/validation"
)

func verifyConnections(cfg config.DatabaseConfig, logger *logger.Logger) *bun.DB {
	dsn := cfg.PostgresDSN()

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		sqldb.Close()
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func newVerifier(ctx context.Context, cfg config.AuthConfig) (auth.Verifier, error) {
	switch cfg.Mode {
	case "oidc":
		return auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
	case "jwt":
		return auth.NewHMACVerifier(cfg.JWTSecret)
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.Mode)
	}
}

func newDispatcher(cfg config.KafkaConfig, logger *logger.Logger) (notification.Dispatcher, func()) {
	if !cfg.Enabled {
		logger.Warn("KAFKA", "Kafka disabled, subscription mails will only be logged")
		return &notification.LogDispatcher{Logger: logger}, func() {}
	}

	logger.Info("KAFKA", fmt.Sprintf("Using Kafka brokers %v", cfg.Brokers))
	if err := kafka.EnsureTopicsExist(cfg.Brokers, []string{cfg.Topics.MailJobs}, logger); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	}

	producer := kafka.NewProducer(cfg.Brokers, logger)
	logger.Info("KAFKA", "Kafka producer initialized successfully")
	return notification.NewKafkaDispatcher(producer, cfg.Topics.MailJobs, logger), func() {
		if err := producer.Close(); err != nil {
			logger.Error("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}
}

func main() {
	logger := logger.NewLogger("meetup-service")
	defer logger.Close()

	logger.Info("APP", "Starting Meetup Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	logger.SetLevel(cfg.App.LogLevel)
	loc := cfg.App.Location()
	ctx := context.Background()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(cfg.Database.PostgresDSN(), logger)
		if err := runner.MigrateUp(); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		if err := runner.Close(); err != nil {
			logger.Warn("DATABASE", err.Error())
		}
	}

	bunDB := verifyConnections(cfg.Database, logger)
	defer bunDB.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	dispatcher, closeDispatcher := newDispatcher(cfg.Kafka, logger)
	defer closeDispatcher()

	verifier, err := newVerifier(ctx, cfg.Auth)
	if err != nil {
		logger.Fatal("AUTH", err.Error())
	}

	clock := utils.SystemClock{}
	gate := validation.New(loc)
	meetupStore := &meetup_db.DB{Bun: bunDB, FilesBaseURL: cfg.App.FilesBaseURL}

	meetupService := meetup.NewMeetupService(meetupStore, clock, loc, logger, appMetrics)
	subscriptionService := subscription.NewSubscriptionService(
		&subscription_db.DB{Bun: bunDB, FilesBaseURL: cfg.App.FilesBaseURL},
		meetupStore,
		dispatcher,
		clock,
		logger,
		appMetrics,
	)

	meetupHandler := meetup_api.NewHandler(meetupService, gate, logger)
	subscriptionHandler := subscription_api.NewHandler(subscriptionService, gate, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestLogger(logger, appMetrics))

	// --- Public Routes ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier, logger))
		logger.Info("AUTH", fmt.Sprintf("%s middleware applied to protected routes", cfg.Auth.Mode))

		meetupHandler.RegisterRoutes(r)
		logger.Info("ROUTER", "Meetup routes registered under /meetups and /organizing")

		subscriptionHandler.RegisterRoutes(r)
		logger.Info("ROUTER", "Subscription routes registered under /subscriptions")
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Meetup Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Meetup Service shutdown complete")
	}
}
