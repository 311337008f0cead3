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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/ledgerimport/internal/adapter/http"
	"github.com/iho/ledgerimport/internal/adapter/http/handler"
	"github.com/iho/ledgerimport/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/ledgerimport/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgerimport/internal/adapter/repository/redis"
	"github.com/iho/ledgerimport/internal/infrastructure/auth"
	"github.com/iho/ledgerimport/internal/infrastructure/config"
	"github.com/iho/ledgerimport/internal/infrastructure/eventpublisher"
	"github.com/iho/ledgerimport/internal/infrastructure/logger"
	"github.com/iho/ledgerimport/internal/infrastructure/metrics"
	"github.com/iho/ledgerimport/internal/infrastructure/postgres"
	"github.com/iho/ledgerimport/internal/infrastructure/redis"
	"github.com/iho/ledgerimport/internal/ingest"
	"github.com/iho/ledgerimport/internal/usecase"
)

// Limiters idle for this long are dropped.
const (
	limiterCleanupInterval = time.Minute
	limiterIdleTimeout     = 10 * time.Minute
)

func main() {
	// config errors are reported before the configured logger exists
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "ledgerimport"})
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(appLogger, cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	m := metrics.New()

	reconciler, err := newReconciler(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid reconciliation tolerance")
	}
	numberFormat, err := ingest.ParseNumberFormat(cfg.ImportNumberFormat)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid IMPORT_NUMBER_FORMAT")
	}

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	batchRepo := postgresRepo.NewImportBatchRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRowRepository(pool)
	balanceRepo := postgresRepo.NewExternalBalanceRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	importLock := redisRepo.NewImportLock(redisClient, m)
	progressStore := redisRepo.NewProgressStore(redisClient, cfg.ImportProgressTTL, appLogger)

	// Initialize use cases
	importUC := usecase.NewImportUseCase(
		txManager, batchRepo, ledgerRepo, balanceRepo, outboxRepo, auditRepo,
		idGen, reconciler, retrier, m, logger.Component(appLogger, "importer"),
		usecase.ImportOptions{BatchSize: cfg.ImportBatchSize, NumberFormat: numberFormat},
	)
	batchUC := usecase.NewBatchUseCase(batchRepo, ledgerRepo)
	diagnosticUC := usecase.NewOfferDiagnosticUseCase()

	// Initialize handlers
	importHandler := handler.NewImportHandler(handler.ImportHandlerConfig{
		Imports:     importUC,
		Batches:     batchUC,
		Lock:        importLock,
		Progress:    progressStore,
		MaxFileSize: cfg.ImportMaxFileSize,
		LockTTL:     cfg.ImportLockTTL,
		Logger:      appLogger,
	})
	diagnosticHandler := handler.NewDiagnosticHandler(diagnosticUC, cfg.ImportMaxFileSize)
	healthHandler := handler.NewHealthHandler(
		handler.PostgresDependency(pool),
		handler.RedisDependency(redisClient),
	)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	routerCfg := httpAdapter.RouterConfig{
		HealthHandler:     healthHandler,
		ImportHandler:     importHandler,
		DiagnosticHandler: diagnosticHandler,
		IdempotencyStore:  idempotencyStore,
		IdempotencyTTL:    cfg.IdempotencyTTL,
		RateLimiter:       rateLimiter,
		HTTPMetrics:       middleware.NewHTTPMetrics(prometheus.DefaultRegisterer),
		MetricsHandler:    promhttp.Handler(),
		Logger:            appLogger,
	}
	if cfg.AuthEnabled {
		if cfg.JWTSecret == "" {
			log.Fatal().Msg("AUTH_ENABLED requires JWT_SECRET")
		}
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		log.Info().Msg("authentication enabled")
	}

	// Background workers
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(logger.Component(appLogger, "outbox")),
		Logger:     logger.Component(appLogger, "outbox"),
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()
	go cleanupLimiters(ctx, rateLimiter, limiterCleanupInterval, limiterIdleTimeout)

	server := newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg))

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		log.Error().Err(err).Msg("server failed")
	}

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newReconciler(cfg *config.Config) (*usecase.Reconciler, error) {
	abs, err := cfg.AbsoluteTolerance()
	if err != nil {
		return nil, err
	}
	rel, err := cfg.RelativeTolerance()
	if err != nil {
		return nil, err
	}
	return usecase.NewReconciler(abs, rel), nil
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(idle)
		}
	}
}
