// Package middleware holds cross-cutting wrappers for bot handlers and the HTTP side server.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/handlers"
	"github.com/Proton-105/mensa-bot/internal/idempotency"
)

// UpdateTTL is how long a processed update is remembered. Telegram stops redelivering long before.
const UpdateTTL = 24 * time.Hour

// Idempotency ensures handlers execute at most once per Telegram update.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := extractIdempotencyKey(c)
			if key == "" {
				return next(c)
			}

			result, err := manager.Execute(handlers.Context(c), key, UpdateTTL, func(context.Context) (interface{}, error) {
				return nil, next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					log.Info("update already in progress", slog.String("key", key))
					return nil
				}
				return err
			}

			if result != nil && result.FromCache {
				log.Info("skipping redelivered update", slog.String("key", key))
			}

			return nil
		}
	}
}

// extractIdempotencyKey prefers Telegram's update ID, which a redelivery keeps.
// Updates without one fall back to the callback or message identity.
func extractIdempotencyKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if id := c.Update().ID; id != 0 {
		return idempotency.GenerateKey("update", id)
	}

	if cb := c.Callback(); cb != nil && cb.ID != "" {
		return idempotency.GenerateKey("cb", cb.ID)
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 && msg.Chat != nil {
		return idempotency.GenerateKey("msg", msg.Chat.ID, msg.ID)
	}

	return ""
}
