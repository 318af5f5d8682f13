package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bronlock/internal/api"
	"bronlock/internal/catalog"
	"bronlock/internal/config"
	"bronlock/internal/database"
	"bronlock/internal/domain"
	"bronlock/internal/events"
	"bronlock/internal/export"
	"bronlock/internal/lockmanager"
	"bronlock/internal/logging"
	"bronlock/internal/metrics"
	"bronlock/internal/payment"
	"bronlock/internal/repository"
	"bronlock/internal/service"
	"bronlock/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	providerCatalog, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Error().Err(err).Str("catalog_path", cfg.Catalog.Path).Msg("load provider catalog")
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient, leaseStore := initLeaseStore(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	locks := lockmanager.New(leaseStore, &logger, cfg.Booking.StoreOpTimeout())
	verifier := initPaymentVerifier(cfg, &logger)

	eventBus := events.NewEventBus()
	auditWorker := worker.NewAuditWorker(db, worker.RetryPolicy{}, &logger)
	auditWorker.Subscribe(eventBus)

	bookings := service.NewBookingService(locks, db, verifier, providerCatalog, eventBus, cfg.Booking, &logger)
	exporter := export.NewExcelExporter(bookings, cfg.Exports.Path, &logger)
	httpServer := api.NewHTTPServer(cfg.API, bookings, exporter, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditWorker.Start(ctx)
	defer auditWorker.Stop()

	backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
	go backupService.Start(ctx)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.WithComponent(baseLogger, "booking-api")

	return cfg, logger, closer, nil
}

// initLeaseStore prefers Redis; without it the in-process store is
// used, which only holds up for a single replica.
func initLeaseStore(cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.LeaseStore) {
	if cfg.Redis.Address == "" {
		logger.Warn().Msg("redis not configured, using in-memory lease store (single instance only)")
		return nil, repository.NewMemoryLeaseStore()
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Error().Err(err).Msg("redis connection failed")
		logger.Warn().Msg("falling back to in-memory lease store (single instance only)")
		_ = repository.Close(redisClient)
		return nil, repository.NewMemoryLeaseStore()
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient, repository.NewRedisLeaseStore(redisClient)
}

func initPaymentVerifier(cfg *config.Config, logger *zerolog.Logger) domain.PaymentVerifier {
	if cfg.Payment.Mode == "gateway" {
		logger.Info().Str("gateway_url", cfg.Payment.GatewayURL).Msg("payment gateway verifier enabled")
		return payment.NewGatewayClient(cfg.Payment, logger)
	}

	logger.Warn().Msg("static payment verifier enabled, do not use in production")
	return payment.NewStaticVerifier()
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			logger.Warn().Msg("HTTP API is disabled in config")
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("booking API started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("booking API stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
