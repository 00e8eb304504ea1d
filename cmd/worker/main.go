package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"commerce_sync/internal/api"
	"commerce_sync/internal/config"
	"commerce_sync/internal/gaps"
	"commerce_sync/internal/lock"
	"commerce_sync/internal/publisher"
	"commerce_sync/internal/queue"
	"commerce_sync/internal/scheduler"
	"commerce_sync/internal/shopify"
	"commerce_sync/internal/storage/postgres"
	"commerce_sync/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	if err := postgres.RunMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	var events interface {
		worker.Publisher
		Close() error
	} = publisher.Noop{}
	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:       cfg.RabbitMQ.URL,
			Exchange:  cfg.RabbitMQ.Exchange,
			QueueName: cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		events = rabbitMQ
	} else {
		logger.Warn("rabbitmq not configured, events disabled")
	}
	defer events.Close()

	var locker worker.Locker = lock.Noop{}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		locker = lock.NewRedisLocker(rdb, "commerce_sync:lock:", logger)
	} else {
		logger.Warn("redis not configured, bulk submit lock disabled")
	}

	since, err := cfg.Sync.Since()
	if err != nil {
		logger.Error("invalid sync config", "error", err)
		os.Exit(1)
	}

	// Stores
	queueStore := postgres.NewQueueStore(db)
	ledgerStore := postgres.NewLedgerStore(db)
	connStore := postgres.NewConnectionStore(db)
	factStore := postgres.NewFactStore(db)
	statsStore := postgres.NewStatsStore(db)
	txManager := postgres.NewTransactionManager(db)

	client := shopify.New(shopify.Config{
		APIVersion:     cfg.Shopify.APIVersion,
		Timeout:        cfg.Shopify.Timeout,
		RateLimit:      cfg.Shopify.RateLimit,
		RateBurst:      cfg.Shopify.RateBurst,
		MaxAttempts:    cfg.Shopify.Retry.MaxAttempts,
		InitialBackoff: cfg.Shopify.Retry.InitialBackoff,
		MaxBackoff:     cfg.Shopify.Retry.MaxBackoff,
	}, logger)
	processor := shopify.NewProcessor(client, factStore, txManager, cfg.Sync.BatchSize, logger)

	jobQueue := queue.New(queueStore, cfg.Queue.MaxAttempts, logger)
	runner := queue.NewRunner(queueStore, queue.RunnerConfig{
		PollInterval:      cfg.Queue.PollInterval,
		InitialBackoff:    cfg.Queue.InitialBackoff,
		MaxBackoff:        cfg.Queue.MaxBackoff,
		StaleAfter:        cfg.Queue.StaleAfter,
		HeartbeatInterval: cfg.Queue.HeartbeatInterval,
	}, logger)

	syncWorker := worker.New(jobQueue, ledgerStore, connStore, client, processor, events, locker, worker.Config{
		PollInterval:  cfg.Sync.PollInterval,
		ConflictDelay: cfg.Sync.ConflictDelay,
		StuckAfter:    cfg.Sync.StuckAfter,
		LockTTL:       cfg.Redis.LockTTL,
		Since:         since,
	}, logger)
	syncWorker.Register(runner, cfg.Queue.Concurrency)

	dispatcher := worker.NewDispatcher(jobQueue, ledgerStore)
	remediator := gaps.NewRemediator(
		connStore,
		ledgerStore,
		gaps.NewDetector(statsStore, logger),
		dispatcher,
		gaps.RemediatorConfig{
			LookbackDays:     cfg.Gaps.LookbackDays,
			DeepLookbackDays: cfg.Gaps.DeepLookbackDays,
			Platform:         cfg.Gaps.Platform,
		},
		logger,
	)
	sched := scheduler.NewScheduler(remediator, cfg.Gaps.ScanInterval, 0, logger)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(api.NewHandler(connStore, ledgerStore, dispatcher, remediator, logger), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting commerce sync worker",
		"http_addr", cfg.HTTP.Addr,
		"concurrency", cfg.Queue.Concurrency,
		"gap_scan_interval", cfg.Gaps.ScanInterval,
	)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := runner.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("queue runner error", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("scheduler error", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}

	wg.Wait()
	logger.Info("worker stopped")
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
