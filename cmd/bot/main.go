package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/Proton-105/mensa-bot/internal/lifecycle"
	"github.com/Proton-105/mensa-bot/pkg/config"
	"github.com/Proton-105/mensa-bot/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, v, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "sentry init: %v\n", err)
			return 1
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	if config.WatchLogLevel(v, func(level string) {
		logger.SetLevel(level)
		log.Info("log level changed", slog.String("level", level))
	}) {
		log.Debug("watching config file for log level changes", slog.String("file", v.ConfigFileUsed()))
	}

	log.Info("starting mensa bot",
		slog.String("mode", cfg.Bot.Mode),
		slog.String("store", cfg.Store.Driver),
		slog.Bool("redis", cfg.Redis.Enabled),
		slog.String("http_port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown := lifecycle.NewShutdown(log)
	application, err := newApp(ctx, *cfg, log, shutdown)
	if err != nil {
		log.Error("failed to start", slog.Any("error", err))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = shutdown.Execute(shutdownCtx)
		return 1
	}

	serveErr := application.run(ctx)
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		log.Error("http server stopped", slog.Any("error", serveErr))
	}

	log.Info("mensa bot shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := shutdown.Execute(shutdownCtx); err != nil {
		log.Error("shutdown finished with errors", slog.Any("error", err))
		return 1
	}

	if serveErr != nil {
		return 1
	}
	return 0
}
