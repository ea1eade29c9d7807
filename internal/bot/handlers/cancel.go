package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/keyboard"
	"github.com/Proton-105/mensa-bot/internal/conversation"
)

// NewCancelHandler abandons the current conversation without saving anything.
func NewCancelHandler(engine Engine, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if _, ok := senderID(c); !ok {
			log.Warn("cancel handler invoked without sender context")
			return nil
		}
		return handleEvent(c, engine, kb, conversation.KindCancel, "")
	}
}
