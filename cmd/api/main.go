package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotbook/internal/api"
	"slotbook/internal/config"
	"slotbook/internal/database"
	"slotbook/internal/domain"
	"slotbook/internal/events"
	"slotbook/internal/export"
	"slotbook/internal/logging"
	"slotbook/internal/metrics"
	"slotbook/internal/models"
	"slotbook/internal/repository"
	"slotbook/internal/service"
	"slotbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 10 * time.Second

func main() {
	tokenClient := flag.Int64("issue-token", 0, "print a bearer token for this client id and exit")
	tokenRole := flag.String("token-role", models.RoleClient, "role of the issued token (client|staff)")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of the issued token")
	flag.Parse()

	if *tokenClient != 0 {
		if err := issueToken(*tokenClient, *tokenRole, *tokenTTL); err != nil {
			log.Fatalf("Fatal error: %v", err)
		}
		return
	}

	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "configs/config.yaml"
}

func issueToken(clientID int64, role string, ttl time.Duration) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	token, err := api.NewTokenAuth(cfg.API.Auth.JWTSecret, cfg.API.Auth.Issuer).
		IssueToken(clientID, fmt.Sprintf("cli:%d", clientID), role, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func run() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "api-main")

	db, err := database.NewDB(cfg.Database.Path, logging.Component(baseLogger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}

	bus := events.NewEventBus()
	auditLogger := logging.Component(baseLogger, "events")
	bus.SubscribeAll(func(ev *events.Event) error {
		auditLogger.Info().
			Str("event_id", ev.ID).
			Str("event_type", ev.Type).
			RawJSON("payload", ev.Payload).
			Msg("domain event")
		return nil
	})

	var queue domain.NotificationQueue
	if cfg.Notifications.Enabled {
		w, err := initNotificationWorker(cfg, db, redisClient, baseLogger)
		if err != nil {
			return err
		}
		go w.Start(ctx)
		queue = w
	}

	bookings := service.NewBookingService(db, bus, queue, cfg.Booking.MaxRecurringOccurrences,
		logging.Component(baseLogger, "booking"))
	availability := service.NewAvailabilityService(db, cfg.Booking.SlotDuration,
		logging.Component(baseLogger, "availability"))
	exporter := export.NewExporter(db, cfg.Exports.Path, cfg.Booking.MaxExportDays,
		logging.Component(baseLogger, "export"))

	limiter := initPublicLimiter(ctx, redisClient, baseLogger)

	handler := api.NewHandler(bookings, availability, exporter, db, logging.Component(baseLogger, "http"))
	httpServer := api.NewHTTPServer(cfg.API, handler, limiter, baseLogger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API.GRPC, baseLogger)
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	backup := database.NewBackupService(db, cfg.Database.Path, cfg.Backup, logging.Component(baseLogger, "backup"))
	go backup.Start(ctx)

	startMetrics(ctx, cfg, logger)

	return startServers(ctx, grpcServer, httpServer, cfg, logger)
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	client := repository.NewRedisClient(cfg.Redis)
	if client == nil {
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := repository.Ping(pingCtx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initNotificationWorker(cfg *config.Config, db *database.DB, redisClient *redis.Client, baseLogger *zerolog.Logger) (*worker.NotificationWorker, error) {
	policy, err := worker.RetryPolicyFromConfig(cfg.Notifications)
	if err != nil {
		return nil, fmt.Errorf("notification retry policy: %w", err)
	}
	workerLogger := logging.Component(baseLogger, "notifications")
	return worker.NewNotificationWorker(
		db,
		worker.NewLogNotifier(workerLogger),
		redisClient,
		policy,
		worker.QueueKeys{Queue: cfg.Notifications.QueueKey, DeadLetter: cfg.Notifications.DeadLetterKey},
		workerLogger,
	), nil
}

// initPublicLimiter prefers Redis so limits hold across instances; the in-memory
// limiter takes over whenever Redis is missing or failing.
func initPublicLimiter(ctx context.Context, redisClient *redis.Client, baseLogger *zerolog.Logger) domain.RateLimitStore {
	memory := repository.NewMemoryRateLimiter()
	go sweepLimiter(ctx, memory)

	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverRateLimiter(
		repository.NewRedisRateLimiter(redisClient),
		memory,
		logging.Component(baseLogger, "rate-limit"),
	)
}

func sweepLimiter(ctx context.Context, limiter *repository.MemoryRateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep()
		}
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Int("port", port).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
