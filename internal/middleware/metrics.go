package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/handlers"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordUpdate(UpdateKind(c), status, time.Since(start))

		return err
	}
}

// UpdateKind names the kind of update with a bounded set of values usable as a metric label.
func UpdateKind(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if c.Callback() != nil {
		return "callback"
	}

	text := c.Text()
	switch {
	case strings.HasPrefix(text, "/"):
		return "command"
	case text != "":
		return "text"
	default:
		return "unknown"
	}
}
