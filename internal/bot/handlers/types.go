package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/conversation"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Engine is the conversation core the handlers feed.
type Engine interface {
	Handle(ctx context.Context, ev conversation.Event) (conversation.Response, error)
}

// Keys of values stored on the telebot context.
const (
	contextKey = "request_ctx"
	// ToastKey holds the text to answer a callback query with.
	ToastKey = "callback_toast"
)

// WithContext attaches ctx to the update so handlers share cancellation and the correlation ID.
func WithContext(c telebot.Context, ctx context.Context) {
	c.Set(contextKey, ctx)
}

// Context returns the context attached by WithContext or context.Background.
func Context(c telebot.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(contextKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

func senderID(c telebot.Context) (int64, bool) {
	if c == nil || c.Sender() == nil {
		return 0, false
	}
	return c.Sender().ID, true
}
