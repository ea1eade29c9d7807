package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/keyboard"
	"github.com/Proton-105/mensa-bot/internal/conversation"
)

// NewStartHandler starts a conversation with a welcome message, restarting any conversation in progress.
func NewStartHandler(engine Engine, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if _, ok := senderID(c); !ok {
			log.Warn("start handler invoked without sender")
			return nil
		}
		return handleEvent(c, engine, kb, conversation.KindStart, "")
	}
}
