package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/keyboard"
	"github.com/Proton-105/mensa-bot/internal/conversation"
)

// NewChoiceHandler forwards button presses to the engine.
func NewChoiceHandler(engine Engine, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}

		token, ok := keyboard.ChoiceToken(cb.Data)
		if !ok {
			log.Debug("ignoring callback with unknown data", slog.String("data", cb.Data))
			return nil
		}

		return handleEvent(c, engine, kb, conversation.KindChoice, token)
	}
}
