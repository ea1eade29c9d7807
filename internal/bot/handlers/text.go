package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/keyboard"
	"github.com/Proton-105/mensa-bot/internal/conversation"
)

// NewTextHandler forwards free-text messages to the engine.
func NewTextHandler(engine Engine, kb *keyboard.Builder) Handler {
	return func(c telebot.Context) error {
		return handleEvent(c, engine, kb, conversation.KindText, c.Text())
	}
}
