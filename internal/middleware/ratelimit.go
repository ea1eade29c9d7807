package middleware

import (
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/handlers"
	apperrors "github.com/Proton-105/mensa-bot/internal/errors"
	"github.com/Proton-105/mensa-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user rate limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	log     *slog.Logger
	now     func() time.Time
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		log:     log,
		now:     time.Now,
	}
}

// Handle rejects updates beyond the per-user limit with a rate limit error. Limiter
// failures let the update through.
func (m *RateLimitMiddleware) Handle(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		if m.limiter == nil || !m.rules.Enabled() {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil {
			return next(c)
		}

		if msg := c.Message(); msg != nil && c.Callback() == nil && m.rules.Exempt(msg.Text) {
			return next(c)
		}

		userID := sender.ID
		rule, err := m.rules.PerUser()
		if err != nil {
			m.log.Error("failed to load per-user rate limit", slog.Int64("user_id", userID), slog.Any("error", err))
			return next(c)
		}

		result, err := m.limiter.Check(handlers.Context(c), m.rules.Key(userID), rule.Limit, rule.Window)
		switch {
		case errors.Is(err, ratelimit.ErrLimitExceeded), err == nil && result != nil && !result.Allowed:
			m.log.Warn("rate limit exceeded", slog.Int64("user_id", userID))
			return apperrors.NewRateLimitError(result.RetryAfter(m.now()))
		case err != nil:
			m.log.Warn("rate limiter error", slog.Int64("user_id", userID), slog.Any("error", err))
		}

		return next(c)
	}
}
