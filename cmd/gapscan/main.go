package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"commerce_sync/internal/config"
	"commerce_sync/internal/gaps"
	"commerce_sync/internal/queue"
	"commerce_sync/internal/storage/postgres"
	"commerce_sync/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	connectionID := flag.String("connection", "", "connection id to scan (all connections of the configured platform when empty)")
	deep := flag.Bool("deep", false, "scan the deep lookback window")
	dryRun := flag.Bool("dry-run", false, "report findings without enqueueing repairs")
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

	if err := postgres.RunMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	connStore := postgres.NewConnectionStore(db)
	ledgerStore := postgres.NewLedgerStore(db)
	jobQueue := queue.New(postgres.NewQueueStore(db), cfg.Queue.MaxAttempts, logger)

	remediator := gaps.NewRemediator(
		connStore,
		ledgerStore,
		gaps.NewDetector(postgres.NewStatsStore(db), logger),
		worker.NewDispatcher(jobQueue, ledgerStore),
		gaps.RemediatorConfig{
			LookbackDays:     cfg.Gaps.LookbackDays,
			DeepLookbackDays: cfg.Gaps.DeepLookbackDays,
			Platform:         cfg.Gaps.Platform,
		},
		logger,
	)

	ids := []string{*connectionID}
	if *connectionID == "" {
		conns, err := connStore.List(ctx, cfg.Gaps.Platform)
		if err != nil {
			logger.Error("failed to list connections", "error", err)
			os.Exit(1)
		}
		ids = ids[:0]
		for _, c := range conns {
			ids = append(ids, c.ID)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	failed := false
	for _, id := range ids {
		report, err := remediator.Run(ctx, id, gaps.RunOptions{Deep: *deep, DryRun: *dryRun})
		if err != nil {
			logger.Error("gap scan failed", "connection_id", id, "error", err)
			failed = true
		}
		if report != nil {
			if err := enc.Encode(report); err != nil {
				logger.Error("failed to write report", "error", err)
				failed = true
			}
		}
	}

	if failed {
		os.Exit(1)
	}
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

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
