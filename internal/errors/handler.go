package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Proton-105/mensa-bot/internal/i18n"
	"github.com/Proton-105/mensa-bot/pkg/logger"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

// Handler logs application errors. Error level records reach Sentry through
// the logger's Sentry handler, so the log line is the only report.
type Handler struct {
	log        *slog.Logger
	translator i18n.Translator
}

// NewHandler builds a Handler. A nil translator leaves the English defaults in place.
func NewHandler(log *slog.Logger, translator i18n.Translator) *Handler {
	return &Handler{
		log:        log,
		translator: translator,
	}
}

// Handle logs err and returns the message to show the user
// together with whether retrying the action may succeed.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	log := h.log
	if log == nil {
		log = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		attrs := []slog.Attr{
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
			slog.Any("error", err),
		}

		if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
			attrs = append(attrs, slog.String("correlation_id", correlationID))
		}

		log.LogAttrs(ctx, levelFor(appErr.Severity), "application error", attrs...)
		metrics.RecordError(appErr.Code, string(appErr.Severity))

		return h.userMessage(appErr), appErr.Retryable
	}

	attrs := []slog.Attr{
		slog.String("message", err.Error()),
		slog.String("severity", string(SeverityHigh)),
		slog.Bool("retryable", false),
		slog.Any("error", err),
	}

	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		attrs = append(attrs, slog.String("correlation_id", correlationID))
	}

	log.LogAttrs(ctx, slog.LevelError, "unknown error", attrs...)
	metrics.RecordError("unknown", string(SeverityHigh))

	return h.translate(KeyGeneric, nil, defaultUserMessage), false
}

func (h *Handler) userMessage(appErr *AppError) string {
	fallback := appErr.UserMessage
	if fallback == "" {
		fallback = defaultUserMessage
	}

	if appErr.Key == "" {
		return fallback
	}

	return h.translate(appErr.Key, appErr.Args, fallback)
}

func (h *Handler) translate(key string, args map[string]string, fallback string) string {
	if h.translator == nil {
		return fallback
	}

	if message := h.translator.Format(key, args); message != "" && message != key {
		return message
	}

	return fallback
}

func levelFor(severity Severity) slog.Level {
	switch severity {
	case SeverityLow:
		return slog.LevelInfo
	case SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
