// Package bot connects the conversation engine to Telegram.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/handlers"
	"github.com/Proton-105/mensa-bot/internal/bot/keyboard"
	"github.com/Proton-105/mensa-bot/internal/conversation"
	"github.com/Proton-105/mensa-bot/internal/i18n"
	"github.com/Proton-105/mensa-bot/internal/idempotency"
	"github.com/Proton-105/mensa-bot/internal/middleware"
	"github.com/Proton-105/mensa-bot/pkg/config"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

// Options carries the optional parts of the middleware chain.
type Options struct {
	Idempotency idempotency.Manager
	RateLimit   *middleware.RateLimitMiddleware
}

// Engine is the conversation engine driven by the bot.
type Engine interface {
	handlers.Engine
	AbandonPrompt(ctx context.Context) error
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot      *telebot.Bot
	log          *slog.Logger
	authorizedID int64
	engine       Engine
	translator   i18n.Translator
	router       *Router
	keyboard     *keyboard.Builder
	errHandler   ErrorHandler

	mu      sync.RWMutex
	baseCtx context.Context
}

// Settings derives telebot settings from the configuration.
func Settings(cfg config.BotConfig) telebot.Settings {
	settings := telebot.Settings{
		Token:       cfg.Token,
		Synchronous: true,
	}

	if cfg.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.WebhookListen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Timeout,
		}
	}

	return settings
}

// New builds a telegram bot instance configured according to the application settings.
func New(
	cfg config.BotConfig,
	log *slog.Logger,
	engine Engine,
	translator i18n.Translator,
	errHandler ErrorHandler,
	opts Options,
) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := Settings(cfg)
	settings.OnError = func(err error, c telebot.Context) {
		log.Error("telebot error", slog.Any("error", err))
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return newBot(tb, cfg.AuthorizedID, log, engine, translator, errHandler, opts), nil
}

func newBot(
	tb *telebot.Bot,
	authorizedID int64,
	log *slog.Logger,
	engine Engine,
	translator i18n.Translator,
	errHandler ErrorHandler,
	opts Options,
) *Bot {
	b := &Bot{
		telebot:      tb,
		log:          log,
		authorizedID: authorizedID,
		engine:       engine,
		translator:   translator,
		router:       NewRouter(log),
		keyboard:     keyboard.NewBuilder(log),
		errHandler:   errHandler,
		baseCtx:      context.Background(),
	}

	b.setupRouter(opts)
	b.registerTelebotHandlers()

	return b
}

// Start runs the telegram bot event loop until Stop is called. Updates inherit ctx.
func (b *Bot) Start(ctx context.Context) {
	if b.telebot == nil {
		return
	}

	b.mu.Lock()
	b.baseCtx = ctx
	b.mu.Unlock()

	if err := b.telebot.SetCommands(menuCommands(b.translator)); err != nil {
		b.log.Warn("failed to register bot commands", slog.Any("error", err))
	}

	b.log.Info("telegram bot started", slog.String("username", b.telebot.Me.Username))
	b.telebot.Start()
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// TriggerDaily asks the authorized user about today's lunch unless a conversation is running.
func (b *Bot) TriggerDaily(ctx context.Context) error {
	resp, err := b.engine.Handle(ctx, conversation.Event{Kind: conversation.KindScheduled, Sender: b.authorizedID})
	if err != nil {
		metrics.RecordDailyPrompt("failed")
		return fmt.Errorf("start daily conversation: %w", err)
	}
	if resp.Ignored {
		return nil
	}

	if err := handlers.Deliver(b.sendToOwner, b.keyboard, resp.Messages); err != nil {
		metrics.RecordDailyPrompt("failed")
		if abandonErr := b.engine.AbandonPrompt(ctx); abandonErr != nil {
			b.log.ErrorContext(ctx, "failed to reset undelivered daily prompt", slog.Any("error", abandonErr))
		}
		return fmt.Errorf("deliver daily prompt: %w", err)
	}
	return nil
}

// Typing shows the typing indicator in the owner's chat. Failures are only logged.
func (b *Bot) Typing(ctx context.Context) {
	if b.telebot == nil {
		return
	}
	if err := b.telebot.Notify(telebot.ChatID(b.authorizedID), telebot.Typing); err != nil {
		b.log.WarnContext(ctx, "failed to send typing indicator", slog.Any("error", err))
	}
}

// HealthCheck verifies the token against the Telegram API.
func (b *Bot) HealthCheck(ctx context.Context) error {
	if b.telebot == nil {
		return fmt.Errorf("telegram bot is not configured")
	}

	done := make(chan error, 1)
	go func() {
		_, err := b.telebot.Raw("getMe", nil)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Bot) sendToOwner(text string, opts ...interface{}) error {
	_, err := b.telebot.Send(telebot.ChatID(b.authorizedID), text, opts...)
	return err
}

func (b *Bot) context() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.baseCtx
}

func (b *Bot) setupRouter(opts Options) {
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(CallbackAckMiddleware(b.log))
	b.router.Use(AuthMiddleware(b.authorizedID, b.log))
	b.router.Use(LoggingMiddleware(b.context, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(middleware.Metrics)
	if opts.RateLimit != nil {
		b.router.Use(opts.RateLimit.Handle)
	}
	b.router.Use(middleware.Idempotency(opts.Idempotency, b.log))

	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(b.engine, b.keyboard, b.log))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(b.engine, b.keyboard, b.log))
	b.router.RegisterCommand(CommandHelp, handlers.NewHelpHandler(b.translator))
	b.router.RegisterCallback(keyboard.ChoiceUnique, handlers.NewChoiceHandler(b.engine, b.keyboard, b.log))
	b.router.SetDefault(handlers.NewTextHandler(b.engine, b.keyboard))
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
