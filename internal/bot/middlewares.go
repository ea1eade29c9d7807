package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/handlers"
	"github.com/Proton-105/mensa-bot/internal/middleware"
	"github.com/Proton-105/mensa-bot/pkg/logger"
)

const defaultErrorMessage = "Something went wrong. Please try again later."

// ErrorHandler turns an error into the message shown to the user.
type ErrorHandler interface {
	Handle(ctx context.Context, err error) (string, bool)
}

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler ErrorHandler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Warn("panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					userMsg := defaultErrorMessage
					if errHandler != nil {
						if msg, _ := errHandler.Handle(handlers.Context(c), fmt.Errorf("panic recovered: %v", r)); msg != "" {
							userMsg = msg
						}
					}

					if c != nil {
						if sendErr := c.Send(userMsg); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// CallbackAckMiddleware answers every callback query once, with the toast a handler left behind.
func CallbackAckMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if c == nil || c.Callback() == nil {
				return next(c)
			}

			defer func() {
				resp := &telebot.CallbackResponse{}
				if toast, ok := c.Get(handlers.ToastKey).(string); ok {
					resp.Text = toast
				}
				if err := c.Respond(resp); err != nil {
					log.Warn("failed to answer callback", slog.Any("error", err))
				}
			}()

			return next(c)
		}
	}
}

// AuthMiddleware silently drops updates from anyone but the authorized identity.
func AuthMiddleware(authorizedID int64, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if c == nil || c.Sender() == nil || c.Sender().ID != authorizedID {
				senderID := int64(0)
				if c != nil && c.Sender() != nil {
					senderID = c.Sender().ID
				}
				log.Debug("dropping update from unauthorized sender", slog.Int64("sender", senderID))
				return nil
			}

			return next(c)
		}
	}
}

// LoggingMiddleware attaches a correlation ID to the update and logs its handling.
func LoggingMiddleware(base func() context.Context, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			correlationID := logger.NewCorrelationID()
			ctx := logger.WithCorrelationID(base(), correlationID)
			handlers.WithContext(c, ctx)

			kind := middleware.UpdateKind(c)
			log.Debug("handling update", slog.String("kind", kind), slog.String("correlation_id", correlationID))

			err := next(c)

			attrs := []slog.Attr{
				slog.String("kind", kind),
				slog.String("correlation_id", correlationID),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			log.LogAttrs(ctx, slog.LevelInfo, "handled update", attrs...)

			return err
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler ErrorHandler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			userMsg := defaultErrorMessage
			if errHandler != nil {
				if msg, _ := errHandler.Handle(handlers.Context(c), err); msg != "" {
					userMsg = msg
				}
			}

			if c != nil {
				_ = c.Send(userMsg)
			}

			return nil
		}
	}
}
