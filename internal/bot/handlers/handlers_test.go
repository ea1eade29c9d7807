package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/mensa-bot/internal/bot/keyboard"
	"github.com/Proton-105/mensa-bot/internal/conversation"
	"github.com/Proton-105/mensa-bot/internal/i18n"
)

type sentMessage struct {
	text string
	opts *telebot.SendOptions
}

// fakeContext implements the parts of telebot.Context the handlers use.
type fakeContext struct {
	telebot.Context

	sender   *telebot.User
	text     string
	callback *telebot.Callback
	store    map[string]interface{}
	sent     []sentMessage
	sendErr  error
}

func newFakeContext(senderID int64, text string) *fakeContext {
	return &fakeContext{
		sender: &telebot.User{ID: senderID},
		text:   text,
		store:  make(map[string]interface{}),
	}
}

func (f *fakeContext) Sender() *telebot.User { return f.sender }
func (f *fakeContext) Text() string { return f.text }
func (f *fakeContext) Callback() *telebot.Callback { return f.callback }
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) { f.store[key] = v }

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	msg := sentMessage{text: what.(string)}
	for _, opt := range opts {
		if so, ok := opt.(*telebot.SendOptions); ok {
			msg.opts = so
		}
	}
	f.sent = append(f.sent, msg)
	return nil
}

type markerKey struct{}

type fakeEngine struct {
	events []conversation.Event
	ctxs   []context.Context
	resp   conversation.Response
	err    error
}

func (e *fakeEngine) Handle(ctx context.Context, ev conversation.Event) (conversation.Response, error) {
	e.events = append(e.events, ev)
	e.ctxs = append(e.ctxs, ctx)
	return e.resp, e.err
}

func TestStartHandlerSendsStartEvent(t *testing.T) {
	engine := &fakeEngine{resp: conversation.Response{Messages: []conversation.Message{
		{Text: "Welcome"},
		{Text: "Were you at the mensa?", Choices: []conversation.Choice{{Label: "Yes", Token: "yes"}, {Label: "No", Token: "no"}}},
	}}}
	c := newFakeContext(42, "/start")

	require.NoError(t, NewStartHandler(engine, keyboard.NewBuilder(nil), nil)(c))

	require.Len(t, engine.events, 1)
	assert.Equal(t, conversation.Event{Kind: conversation.KindStart, Sender: 42}, engine.events[0])
	require.Len(t, c.sent, 2)
	assert.Equal(t, "Welcome", c.sent[0].text)
	assert.Nil(t, c.sent[0].opts.ReplyMarkup)
	markup := c.sent[1].opts.ReplyMarkup
	require.NotNil(t, markup)
	assert.Equal(t, "choice:yes", markup.InlineKeyboard[0][0].Data)
}

func TestCancelHandlerSendsCancelEvent(t *testing.T) {
	engine := &fakeEngine{}
	c := newFakeContext(42, "/cancel")

	require.NoError(t, NewCancelHandler(engine, keyboard.NewBuilder(nil), nil)(c))

	require.Len(t, engine.events, 1)
	assert.Equal(t, conversation.KindCancel, engine.events[0].Kind)
	assert.Empty(t, c.sent)
}

func TestTextHandlerUsesHTMLFormat(t *testing.T) {
	engine := &fakeEngine{resp: conversation.Response{Messages: []conversation.Message{
		{Text: "<b>Salate:</b> Salat", Format: conversation.FormatHTML},
	}}}
	c := newFakeContext(42, "Salat und eine Suppe")
	ctx := context.WithValue(context.Background(), markerKey{}, "marker")
	WithContext(c, ctx)

	require.NoError(t, NewTextHandler(engine, keyboard.NewBuilder(nil))(c))

	assert.Equal(t, conversation.Event{Kind: conversation.KindText, Sender: 42, Text: "Salat und eine Suppe"}, engine.events[0])
	assert.Equal(t, ctx, engine.ctxs[0])
	require.Len(t, c.sent, 1)
	assert.Equal(t, telebot.ModeHTML, c.sent[0].opts.ParseMode)
}

func TestChoiceHandler(t *testing.T) {
	t.Run("forwards token and stores toast", func(t *testing.T) {
		engine := &fakeEngine{resp: conversation.Response{Toast: "This button has expired."}}
		c := newFakeContext(42, "")
		c.callback = &telebot.Callback{Data: "choice:correct"}

		require.NoError(t, NewChoiceHandler(engine, keyboard.NewBuilder(nil), nil)(c))

		assert.Equal(t, conversation.Event{Kind: conversation.KindChoice, Sender: 42, Text: "correct"}, engine.events[0])
		assert.Equal(t, "This button has expired.", c.Get(ToastKey))
	})

	t.Run("ignores foreign callback data", func(t *testing.T) {
		engine := &fakeEngine{}
		c := newFakeContext(42, "")
		c.callback = &telebot.Callback{Data: "settings:en"}

		require.NoError(t, NewChoiceHandler(engine, keyboard.NewBuilder(nil), nil)(c))
		assert.Empty(t, engine.events)
	})
}

func TestHandlersPropagateEngineErrors(t *testing.T) {
	engine := &fakeEngine{err: errors.New("storage down")}
	c := newFakeContext(42, "hello")

	err := NewTextHandler(engine, keyboard.NewBuilder(nil))(c)
	assert.EqualError(t, err, "storage down")
	assert.Empty(t, c.sent)
}

func TestIgnoredResponseSendsNothing(t *testing.T) {
	engine := &fakeEngine{resp: conversation.Response{Ignored: true, Messages: []conversation.Message{{Text: "x"}}}}
	c := newFakeContext(7, "hello")

	require.NoError(t, NewTextHandler(engine, keyboard.NewBuilder(nil))(c))
	assert.Empty(t, c.sent)
}

func TestHandlersWithoutSender(t *testing.T) {
	engine := &fakeEngine{}
	c := newFakeContext(0, "/start")
	c.sender = nil

	require.NoError(t, NewStartHandler(engine, keyboard.NewBuilder(nil), nil)(c))
	assert.Empty(t, engine.events)
}

func TestDeliverStopsAtFirstFailure(t *testing.T) {
	calls := 0
	err := Deliver(func(text string, opts ...interface{}) error {
		calls++
		return errors.New("telegram unavailable")
	}, keyboard.NewBuilder(nil), []conversation.Message{{Text: "a"}, {Text: "b"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "send message 1 of 2")
	assert.Equal(t, 1, calls)
}

func TestHelpHandler(t *testing.T) {
	manager, err := i18n.Load("en")
	require.NoError(t, err)
	c := newFakeContext(42, "/help")

	require.NoError(t, NewHelpHandler(manager.Translator("en"))(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0].text, "/help")
}

func TestContextDefaultsToBackground(t *testing.T) {
	assert.Equal(t, context.Background(), Context(newFakeContext(1, "")))
	assert.Equal(t, context.Background(), Context(nil))
}
