package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"news_notifier/internal/config"
	"news_notifier/internal/notifier/discord"
	"news_notifier/internal/publisher"
	"news_notifier/internal/scheduler"
	"news_notifier/internal/service"
	"news_notifier/internal/source/nexon"
	"news_notifier/internal/storage/file"
	"news_notifier/internal/storage/postgres"
)

type snapshotStore interface {
	service.SnapshotStore
	Init(ctx context.Context) error
	Close() error
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openSnapshotStore(cfg.Storage)
	if err != nil {
		logger.Error("failed to open snapshot store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		logger.Error("failed to initialize snapshot store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	// A nil interface disables event mirroring
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	newsSource := nexon.New(nexon.Config{
		URL:            cfg.Feed.URL,
		Timeout:        cfg.Feed.Timeout,
		MaxAttempts:    cfg.Feed.Retry.MaxAttempts,
		InitialBackoff: cfg.Feed.Retry.InitialBackoff,
		MaxBackoff:     cfg.Feed.Retry.MaxBackoff,
	}, logger)

	webhook := discord.New(discord.Config{
		WebhookURL:      cfg.Webhook.URL,
		Timeout:         cfg.Webhook.Timeout,
		ArticleBaseURL:  cfg.Webhook.ArticleBaseURL,
		ImageHost:       cfg.Webhook.ImageHost,
		Color:           cfg.Webhook.Color,
		BroadcastMarker: cfg.Webhook.BroadcastMarker,
	}, logger)

	monitor := service.NewMonitorService(newsSource, store, webhook, pub, logger)

	sched := scheduler.NewScheduler(monitor, cfg.Poll.Interval, cfg.Poll.CycleTimeout, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting news notifier",
		"source", newsSource.Name(),
		"feed_url", cfg.Feed.URL,
		"interval", cfg.Poll.Interval,
		"storage", cfg.Storage.Driver,
		"rabbitmq", cfg.RabbitMQ.Enabled,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func openSnapshotStore(cfg config.StorageConfig) (snapshotStore, error) {
	if cfg.Driver == config.StoragePostgres {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			return nil, err
		}
		return postgres.NewSnapshotStore(db), nil
	}
	return file.NewSnapshotStore(cfg.CachePath), nil
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
