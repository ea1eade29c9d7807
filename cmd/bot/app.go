package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Proton-105/mensa-bot/internal/bot"
	"github.com/Proton-105/mensa-bot/internal/conversation"
	"github.com/Proton-105/mensa-bot/internal/database"
	apperrors "github.com/Proton-105/mensa-bot/internal/errors"
	"github.com/Proton-105/mensa-bot/internal/health"
	"github.com/Proton-105/mensa-bot/internal/i18n"
	"github.com/Proton-105/mensa-bot/internal/idempotency"
	"github.com/Proton-105/mensa-bot/internal/jobs"
	jobhandlers "github.com/Proton-105/mensa-bot/internal/jobs/handlers"
	"github.com/Proton-105/mensa-bot/internal/lifecycle"
	"github.com/Proton-105/mensa-bot/internal/matcher"
	"github.com/Proton-105/mensa-bot/internal/menu"
	"github.com/Proton-105/mensa-bot/internal/middleware"
	"github.com/Proton-105/mensa-bot/internal/ratelimit"
	"github.com/Proton-105/mensa-bot/internal/records"
	"github.com/Proton-105/mensa-bot/internal/state"
	"github.com/Proton-105/mensa-bot/pkg/config"
	"github.com/Proton-105/mensa-bot/pkg/graceful"
	"github.com/Proton-105/mensa-bot/pkg/logger"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
	"github.com/Proton-105/mensa-bot/pkg/redis"
)

const (
	healthCheckTimeout      = 5 * time.Second
	idempotencyCleanupEvery = time.Hour
)

type app struct {
	cfg      config.Config
	log      *slog.Logger
	shutdown *lifecycle.Shutdown

	bot        *bot.Bot
	server     *graceful.Server
	background []func(ctx context.Context)
}

// newApp wires every component. Resources are registered with shutdown as soon
// as they are opened so a failed start still releases them.
func newApp(ctx context.Context, cfg config.Config, log *slog.Logger, shutdown *lifecycle.Shutdown) (*app, error) {
	a := &app{cfg: cfg, log: log, shutdown: shutdown}

	catalog, err := i18n.Load(cfg.Bot.Language)
	if err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}
	translator := catalog.Translator(cfg.Bot.Language)
	errHandler := apperrors.NewHandler(log, translator)
	checker := health.NewChecker(log, healthCheckTimeout)

	var redisClient *redis.Client
	var storage state.Storage = state.NewMemoryStorage()
	if cfg.Redis.Enabled {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		shutdown.RegisterCloser("redis", redisClient.Close)

		instrumented := redis.NewMetricsClient(redisClient)
		checker.AddCheck("redis", instrumented)
		storage = state.NewRedisStorage(instrumented, cfg.Bot.AuthorizedID, 0, log)
	}

	store, err := openRecordStore(ctx, cfg.Store, log, shutdown)
	if err != nil {
		return nil, err
	}
	checker.AddCheck("records", store)

	menus := menu.NewClient(cfg.Menu.BaseURL, cfg.Menu.Timeout, log)
	completer := matcher.NewOpenAICompleter(cfg.Matcher.APIKey, cfg.Matcher.BaseURL, cfg.Matcher.Model, cfg.Matcher.MaxTokens)
	meals := matcher.New(completer, cfg.Matcher.Timeout, log)

	// The bot does not exist yet when the engine is built.
	var telegram *bot.Bot
	engine := conversation.NewEngine(
		cfg.Bot.AuthorizedID,
		storage,
		menus,
		meals,
		store,
		translator,
		errHandler,
		log,
		conversation.WithProgress(func(ctx context.Context) {
			if telegram != nil {
				telegram.Typing(ctx)
			}
		}),
	)

	var opts bot.Options
	rules := ratelimit.NewRules(cfg.RateLimit, bot.CommandCancel, bot.CommandHelp)
	if rules.Enabled() {
		memory := ratelimit.NewMemoryLimiter(log)
		var limiter ratelimit.Limiter = memory
		var sweeper ratelimit.Sweeper = memory
		if redisClient != nil {
			adaptive := ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(redisClient.Client, log), memory, log)
			limiter, sweeper = adaptive, adaptive
		}

		opts.RateLimit = middleware.NewRateLimitMiddleware(limiter, rules, log)
		a.background = append(a.background, ratelimit.NewCleaner(sweeper, log, cfg.RateLimit.Window, 2*cfg.RateLimit.Window).Run)
	}

	if redisClient != nil {
		opts.Idempotency = idempotency.NewManager(idempotency.NewRedisStore(redisClient.Client, log), log)
		a.background = append(a.background, idempotency.NewCleaner(redisClient.Client, log, idempotencyCleanupEvery, middleware.UpdateTTL).Run)
	}

	telegram, err = bot.New(cfg.Bot, log, engine, translator, errHandler, opts)
	if err != nil {
		return nil, err
	}
	a.bot = telegram
	checker.AddCheck("telegram", telegram)

	a.background = append(a.background,
		state.NewCleaner(engine, log, cfg.Conversation.TTL, cfg.Conversation.CleanupInterval).Run,
		metrics.NewConversationCollector(storage).Run,
	)

	if cfg.Schedule.Enabled {
		if err := a.startScheduler(telegram); err != nil {
			return nil, err
		}
	}

	a.server = graceful.NewServer(log, &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           logger.Middleware(middleware.HTTPLogging(log)(newMux(checker))),
		ReadHeaderTimeout: 5 * time.Second,
	}, cfg.Server.ShutdownTimeout)

	return a, nil
}

func newMux(checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", checker.Handler())
	mux.Handle("/livez", health.LivenessHandler())
	return mux
}

// openRecordStore opens the configured record store, applying migrations for postgres.
func openRecordStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger, shutdown *lifecycle.Shutdown) (records.Store, error) {
	if cfg.Driver != records.DriverPostgres {
		store, err := records.NewFileStore(cfg.DataFile, log)
		if err != nil {
			return nil, fmt.Errorf("open record file: %w", err)
		}
		return store, nil
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	shutdown.RegisterCloser("postgres", db.Close)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := database.NewMigrator(db, log).ApplyDir(ctx, cfg.MigrationsDir); err != nil {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("database migrations applied", slog.String("dir", cfg.MigrationsDir))

	return records.NewPostgresStore(db, log), nil
}

// startScheduler fires the daily prompt through asynq when Redis is available
// and through an in-process cron otherwise.
func (a *app) startScheduler(trigger jobs.Trigger) error {
	cfg := a.cfg
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return fmt.Errorf("schedule timezone: %w", err)
	}

	var scheduler jobs.Scheduler
	if cfg.Redis.Enabled {
		redisOpt := redis.AsynqOpt(cfg.Redis)

		manager := jobs.NewManager(redisOpt, a.log)
		a.shutdown.RegisterCloser("jobs manager", manager.Close)

		worker := jobs.NewWorker(redisOpt, jobs.Queues, a.log)
		worker.RegisterHandler(jobs.TaskTypeScheduleDaily, jobhandlers.NewScheduleDailyHandler(manager, loc, a.log))
		worker.RegisterHandler(jobs.TaskTypeDailyPrompt, jobhandlers.NewDailyPromptHandler(trigger, a.log))
		if err := worker.Start(); err != nil {
			return fmt.Errorf("start jobs worker: %w", err)
		}
		a.shutdown.Register("jobs worker", func(context.Context) error {
			worker.Shutdown()
			return nil
		})

		scheduler = jobs.NewScheduler(redisOpt, loc, cfg.Schedule.Hour, cfg.Schedule.MaxDelay, a.log)
	} else {
		scheduler = jobs.NewCronScheduler(trigger, loc, cfg.Schedule.Hour, cfg.Schedule.MaxDelay, a.log)
	}

	if err := scheduler.RegisterTasks(); err != nil {
		return fmt.Errorf("register daily prompt: %w", err)
	}
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.shutdown.Register("scheduler", func(context.Context) error {
		scheduler.Shutdown()
		return nil
	})

	return nil
}

// run starts the bot and the background loops, then serves HTTP until ctx is done.
func (a *app) run(ctx context.Context) error {
	bgCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, loop := range a.background {
		wg.Add(1)
		go func(loop func(context.Context)) {
			defer wg.Done()
			loop(bgCtx)
		}(loop)
	}
	a.shutdown.Register("background loops", func(context.Context) error {
		cancel()
		wg.Wait()
		return nil
	})

	go a.bot.Start(ctx)
	a.shutdown.Register("telegram", func(ctx context.Context) error {
		stopped := make(chan struct{})
		go func() {
			a.bot.Stop()
			close(stopped)
		}()

		select {
		case <-stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	return a.server.ListenAndServe(ctx)
}
