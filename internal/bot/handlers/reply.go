package handlers

import (
	"fmt"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/keyboard"
	"github.com/Proton-105/mensa-bot/internal/conversation"
)

// SendFunc delivers one text message with telebot send options.
type SendFunc func(text string, opts ...interface{}) error

// Deliver sends the messages in order and stops at the first failure.
func Deliver(send SendFunc, kb *keyboard.Builder, messages []conversation.Message) error {
	for i, msg := range messages {
		opts := &telebot.SendOptions{}
		if msg.Format == conversation.FormatHTML {
			opts.ParseMode = telebot.ModeHTML
		}

		if kb != nil && len(msg.Choices) > 0 {
			markup, err := kb.Choices(msg.Choices, msg.Layout)
			if err != nil {
				return err
			}
			opts.ReplyMarkup = markup
		}

		if err := send(msg.Text, opts); err != nil {
			return fmt.Errorf("send message %d of %d: %w", i+1, len(messages), err)
		}
	}
	return nil
}

// Reply answers the update that produced resp.
func Reply(c telebot.Context, kb *keyboard.Builder, resp conversation.Response) error {
	if resp.Ignored {
		return nil
	}

	if resp.Toast != "" {
		c.Set(ToastKey, resp.Toast)
	}

	return Deliver(func(text string, opts ...interface{}) error {
		return c.Send(text, opts...)
	}, kb, resp.Messages)
}

// handleEvent runs ev through the engine and answers with the result.
func handleEvent(c telebot.Context, engine Engine, kb *keyboard.Builder, kind conversation.Kind, text string) error {
	sender, ok := senderID(c)
	if !ok {
		return nil
	}

	resp, err := engine.Handle(Context(c), conversation.Event{Kind: kind, Sender: sender, Text: text})
	if err != nil {
		return err
	}

	return Reply(c, kb, resp)
}
