package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cardialink/portal-api/cmd/mainconfig"
	"github.com/cardialink/portal-api/internal/api/router"
	"github.com/cardialink/portal-api/internal/appointments"
	"github.com/cardialink/portal-api/internal/auth"
	"github.com/cardialink/portal-api/internal/chat"
	appconfig "github.com/cardialink/portal-api/internal/config"
	"github.com/cardialink/portal-api/internal/doctors"
	"github.com/cardialink/portal-api/internal/files"
	"github.com/cardialink/portal-api/internal/observability/metrics"
	"github.com/cardialink/portal-api/internal/scans"
	"github.com/cardialink/portal-api/pkg/logging"
)

func main() {
	// Load .env in development; ignored when absent
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Postgres (accounts, profiles)
	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	// Redis (sessions, scan results)
	redisClient := connectRedis(cfg)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	// S3 (uploaded files)
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// LocalStack needs path-style addressing
		if cfg.AWSEndpointOverride != "" {
			o.UsePathStyle = true
		}
	})

	metricsHandler, portalMetrics := setupMetrics()

	// Accounts and sessions
	repo := auth.NewRepository(pool)
	sessions := auth.NewSessionStore(redisClient, cfg.TokenTTL)
	authService := auth.NewService(repo, sessions, cfg.JWTSecret, cfg.TokenTTL, logger)
	authHandler := auth.NewHandler(authService, logger)

	// File uploads
	fileStore := files.NewStore(s3Client, cfg.UserFilesBucket, cfg.AWSRegion, cfg.AWSEndpointOverride, logger)
	filesHandler := files.NewHandler(fileStore, portalMetrics, logger)

	// Scan analysis
	predictor := scans.NewClient(cfg.PredictURL, cfg.HTTPTimeout)
	resultStore := scans.NewStore(redisClient)
	scansHandler := scans.NewHandler(predictor, resultStore, cfg.IncludeGradcam, portalMetrics, logger)

	// Chat widget
	chatClient := chat.NewClient(cfg.ChatURL, cfg.HTTPTimeout)
	chatHandler := chat.NewHandler(chatClient, chat.NewTranscriptStore(), portalMetrics, logger)

	// Directory and bookings
	doctorsHandler := doctors.NewHandler(doctors.Seed(), logger)
	appointmentsHandler := appointments.NewHandler(appointments.NewScheduler(cfg.AppointmentDelay), logger)

	r := router.New(&router.Config{
		Logger:              logger,
		AuthHandler:         authHandler,
		SessionValidator:    authService,
		DoctorsHandler:      doctorsHandler,
		FilesHandler:        filesHandler,
		ScansHandler:        scansHandler,
		AppointmentsHandler: appointmentsHandler,
		ChatHandler:         chatHandler,
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics builds the registry with runtime collectors plus the
// portal's own instruments.
func setupMetrics() (http.Handler, *metrics.PortalMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewPortalMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if strings.TrimSpace(databaseURL) == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		pool.Close()
		return nil
	}
	return pool
}

func connectRedis(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}
