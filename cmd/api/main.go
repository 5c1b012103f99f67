package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"order-fulfillment-command/internal/api"
	"order-fulfillment-command/internal/eventstore"
	"order-fulfillment-command/internal/handlers"
	"order-fulfillment-command/internal/tasks"
	"order-fulfillment-command/shared/config"
	"order-fulfillment-command/shared/dbx"
	"order-fulfillment-command/shared/httpx"
	"order-fulfillment-command/shared/logx"
	"order-fulfillment-command/shared/metricsx"
	"order-fulfillment-command/shared/mqx"
	"order-fulfillment-command/shared/observability"
)

func main() {
	cfg, readyProblems := config.Load("order-command-api", 8080)
	version := strings.TrimSpace(os.Getenv("VERSION"))
	logger := logx.New(cfg.ServiceName, cfg.Env, version, cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		readyProblems = append(readyProblems, config.Problem{Field: "DATABASE_URL", Message: "DATABASE_URL is required"})
	}
	if len(cfg.KafkaBrokers) == 0 {
		readyProblems = append(readyProblems, config.Problem{Field: "KAFKA_BROKERS", Message: "KAFKA_BROKERS is required"})
	}

	if cfg.OtelEnabled {
		if shutdown, err := observability.InitTracer(context.Background(), observability.TracerConfig{
			ServiceName: cfg.ServiceName,
			Env:         cfg.Env,
			Endpoint:    cfg.OtelEndpoint,
			Insecure:    cfg.OtelInsecure,
			SampleRatio: cfg.OtelSampleRatio,
		}); err == nil {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	metricsx.Register()

	var dbPool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		dbPool, err = dbx.NewPool(cfg)
		if err != nil {
			readyProblems = append(readyProblems, config.Problem{Field: "DATABASE_URL", Message: "failed to connect to database"})
			logger.Error(context.Background(), "db_init_failed", "database init failed",
				slog.String("error_code", "FAILED_PRECONDITION"),
				slog.String("error", err.Error()),
			)
		}
	}

	var publisher eventstore.Publisher = eventstore.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := mqx.NewProducer(cfg)
		if err != nil {
			readyProblems = append(readyProblems, config.Problem{Field: "KAFKA_BROKERS", Message: "failed to initialize kafka producer"})
			logger.Error(context.Background(), "kafka_init_failed", "kafka producer init failed",
				slog.String("error_code", "FAILED_PRECONDITION"),
				slog.String("error", err.Error()),
			)
		} else {
			publisher = producer
			defer producer.Close()
		}
	}

	var (
		stream eventstore.Stream
		index  eventstore.ProductIndex
	)
	if dbPool != nil {
		pgStream := eventstore.NewPostgresStream(dbPool)
		if err := pgStream.EnsureSchema(context.Background()); err != nil {
			readyProblems = append(readyProblems, config.Problem{Field: "DATABASE_URL", Message: "failed to ensure event schema"})
			logger.Error(context.Background(), "schema_init_failed", "event schema init failed",
				slog.String("error_code", "FAILED_PRECONDITION"),
				slog.String("error", err.Error()),
			)
		}
		stream = pgStream
		index = eventstore.NewPostgresProductIndex(dbPool)
	} else {
		stream = eventstore.NewMemoryStream()
		index = eventstore.NewMemoryProductIndex()
	}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = redisClient.Close() }()
		index = eventstore.NewRedisProductIndex(redisClient)
	}

	orderStore := eventstore.NewOrderStore(stream, publisher, cfg.OrderEventsTopic, logger)
	inventoryStore := eventstore.NewInventoryStore(stream, publisher, cfg.InventoryEventsTopic, index, logger)
	inventoryHandler := handlers.NewInventoryHandler(inventoryStore, logger)

	var retry handlers.ReturnRetryEnqueuer
	if cfg.AsynqEnabled && cfg.AsynqRedisAddr != "" {
		client := tasks.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.AsynqRedisAddr,
			Password: cfg.AsynqRedisPass,
			DB:       cfg.AsynqRedisDB,
		}, cfg.AsynqQueue, cfg.ReturnRetryMax)
		defer func() { _ = client.Close() }()
		retry = client
	}
	orderHandler := handlers.NewOrderHandler(orderStore, inventoryHandler, retry, logger)

	readyCheck := func(ctx context.Context) error {
		if dbPool == nil {
			return nil
		}
		return dbx.Ping(ctx, dbPool)
	}
	server := api.NewServer(orderHandler, inventoryHandler, logger, cfg, version, readyProblems, readyCheck)

	handler := server.Router()
	handler = metricsx.Instrument(handler)
	handler = httpx.WithTimeout(cfg.RequestTimeout, handler)
	handler = httpx.WithRequestID(handler)
	handler = httpx.WithRecover(logger, handler)
	handler = httpx.WithRequestLog(logger, httpx.RequestLogOptions{SkipPaths: map[string]bool{"/healthz": true, "/metrics": true}}, handler)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(cfg.HTTPPort)),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "service_start", "starting service",
			slog.String("addr", httpServer.Addr),
			slog.Int("http_port", cfg.HTTPPort),
			slog.String("log_level", cfg.LogLevel),
			slog.Int("request_timeout_ms", cfg.RequestTimeoutMS),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info(context.Background(), "shutdown_signal", "received signal", slog.String("signal", sig.String()))
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "server_failed", "server failed",
				slog.String("error_code", "INTERNAL_ERROR"),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(context.Background(), "shutdown_failed", "shutdown failed",
			slog.String("error_code", "INTERNAL_ERROR"),
			slog.String("error", err.Error()),
		)
	}
	if dbPool != nil {
		dbPool.Close()
	}
	logger.Info(context.Background(), "service_stop", "service stopped")
}
