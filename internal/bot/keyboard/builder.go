package keyboard

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/conversation"
)

// Builder turns conversation choices into inline keyboards.
type Builder struct {
	log *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// Choices builds the keyboard for a message. It returns nil markup when there is nothing to press.
func (b *Builder) Choices(choices []conversation.Choice, layout conversation.Layout) (*telebot.ReplyMarkup, error) {
	if len(choices) == 0 {
		return nil, nil
	}

	buttons := make([]InlineButton, 0, len(choices))
	for _, choice := range choices {
		buttons = append(buttons, InlineButton{
			Text:   choice.Label,
			Unique: ChoiceUnique,
			Data:   choice.Token,
		})
	}

	kb := NewInlineKeyboard()
	if layout == conversation.LayoutColumn {
		kb.AddColumn(buttons...)
	} else {
		kb.AddRow(buttons...)
	}

	markup, err := kb.Build()
	if err != nil {
		b.log.Error("failed to build keyboard", slog.Int("buttons", len(buttons)), slog.Any("error", err))
		return nil, fmt.Errorf("build keyboard: %w", err)
	}
	return markup, nil
}

// ChoiceToken extracts the conversation token from callback data.
func ChoiceToken(callbackData string) (string, bool) {
	unique, data, err := DecodeCallback(callbackData)
	if err != nil || unique != ChoiceUnique || data == "" {
		return "", false
	}
	return data, true
}
