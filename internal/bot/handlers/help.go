package handlers

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/i18n"
)

// NewHelpHandler lists the available commands. It does not touch the conversation.
func NewHelpHandler(translator i18n.Translator) Handler {
	return func(c telebot.Context) error {
		return c.Send(translator.T("common.help"))
	}
}
