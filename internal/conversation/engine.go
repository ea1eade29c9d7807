// Package conversation drives the daily lunch conversation: it owns the
// conversation state, dispatches events through a transition table and
// runs the menu matching and record persistence steps.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Proton-105/mensa-bot/internal/domain"
	apperrors "github.com/Proton-105/mensa-bot/internal/errors"
	"github.com/Proton-105/mensa-bot/internal/i18n"
	"github.com/Proton-105/mensa-bot/internal/state"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

// MenuProvider fetches the current menu of a canteen.
type MenuProvider interface {
	Fetch(ctx context.Context, canteenID int) (*domain.MenuSnapshot, error)
}

// MealMatcher maps a description onto menu items. It never fails.
type MealMatcher interface {
	Match(ctx context.Context, snapshot *domain.MenuSnapshot, description string) domain.MatchResult
}

// RecordStore appends confirmed records.
type RecordStore interface {
	Append(ctx context.Context, record *domain.MealRecord) error
}

// ErrorHandler turns an error into a user-facing message.
type ErrorHandler interface {
	Handle(ctx context.Context, err error) (string, bool)
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.script.now = now
		}
	}
}

// WithProgress registers a callback invoked before a description is matched.
func WithProgress(progress func(ctx context.Context)) Option {
	return func(e *Engine) {
		e.progress = progress
	}
}

// Engine owns the single conversation of the authorized user. Events are
// processed one at a time, including the external calls they trigger.
type Engine struct {
	mu           sync.Mutex
	authorizedID int64
	storage      state.Storage
	menus        MenuProvider
	matcher      MealMatcher
	records      RecordStore
	errHandler   ErrorHandler
	script       *script
	progress     func(ctx context.Context)
	log          *slog.Logger
}

// NewEngine constructs an Engine for the given authorized identity.
func NewEngine(
	authorizedID int64,
	storage state.Storage,
	menus MenuProvider,
	matcher MealMatcher,
	records RecordStore,
	translator i18n.Translator,
	errHandler ErrorHandler,
	log *slog.Logger,
	opts ...Option,
) *Engine {
	if log == nil {
		log = slog.Default()
	}
	if errHandler == nil {
		errHandler = apperrors.NewHandler(log, translator)
	}

	e := &Engine{
		authorizedID: authorizedID,
		storage:      storage,
		menus:        menus,
		matcher:      matcher,
		records:      records,
		errHandler:   errHandler,
		script:       &script{translator: translator, now: time.Now},
		log:          log,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Handle processes one event and returns what should be sent back.
func (e *Engine) Handle(ctx context.Context, ev Event) (Response, error) {
	if ev.Sender != e.authorizedID {
		e.log.Debug("ignoring event from unauthorized sender", slog.Int64("sender", ev.Sender), slog.String("kind", string(ev.Kind)))
		return Response{Ignored: true}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	conv, err := e.load(ctx)
	if err != nil {
		return Response{}, err
	}

	t, ok := lookupTransition(conv.Step, ev.Kind)
	if !ok {
		e.log.Warn("no transition", slog.String("step", string(conv.Step)), slog.String("kind", string(ev.Kind)))
		return Response{Ignored: true}, nil
	}

	out := t(e.script, conv, ev)

	switch out.effect {
	case effectDrop:
		e.log.Info("dropping scheduled prompt, conversation in progress", slog.String("step", string(conv.Step)))
		metrics.RecordDailyPrompt("dropped")
		return Response{Ignored: true}, nil
	case effectMatch:
		out = e.runMatch(ctx, conv, ev.Text)
	case effectPersist:
		out = e.runPersist(ctx, conv)
	}

	if ev.Kind == KindScheduled {
		metrics.RecordDailyPrompt("sent")
	}

	if err := e.store(ctx, conv, out.next); err != nil {
		return Response{}, err
	}

	return Response{Messages: out.messages, Toast: out.toast}, nil
}

// ExpireStale resets an active conversation that has not been touched for ttl.
func (e *Engine) ExpireStale(ctx context.Context, ttl time.Duration) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	conv, err := e.load(ctx)
	if err != nil {
		return false, err
	}

	if !conv.Active || conv.UpdatedAt.IsZero() || e.script.now().Sub(conv.UpdatedAt) <= ttl {
		return false, nil
	}

	if err := e.store(ctx, conv, state.Idle()); err != nil {
		return false, err
	}

	return true, nil
}

// AbandonPrompt returns a daily prompt that was never answered to idle, so
// the next scheduled run asks again. Any other conversation is left alone.
func (e *Engine) AbandonPrompt(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	conv, err := e.load(ctx)
	if err != nil {
		return err
	}

	if !conv.Active || conv.Step != state.StepAwaitingVisited {
		return nil
	}

	e.log.Info("abandoning undelivered daily prompt")
	return e.store(ctx, conv, state.Idle())
}

// Current returns a copy of the current conversation.
func (e *Engine) Current(ctx context.Context) (state.Conversation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.load(ctx)
}

func (e *Engine) runMatch(ctx context.Context, conv state.Conversation, description string) outcome {
	if conv.CanteenID == nil {
		e.errHandler.Handle(ctx, apperrors.NewStateError("description without selected canteen"))
		return outcome{next: state.Idle(), messages: []Message{e.script.text("errors.state")}}
	}
	if _, ok := domain.FindCanteenByID(*conv.CanteenID); !ok {
		e.errHandler.Handle(ctx, apperrors.NewStateError(fmt.Sprintf("unknown canteen %d", *conv.CanteenID)))
		return outcome{next: state.Idle(), messages: []Message{e.script.text("errors.state")}}
	}

	if e.progress != nil {
		e.progress(ctx)
	}

	snapshot, err := e.menus.Fetch(ctx, *conv.CanteenID)
	if err != nil {
		message, _ := e.errHandler.Handle(ctx, err)
		return outcome{next: conv, messages: []Message{{Text: message}}}
	}

	result := e.matcher.Match(ctx, snapshot, description)
	if result == nil {
		result = domain.MatchResult{}
	}

	next := conv.Clone()
	if next.Draft == nil {
		next.Draft = domain.NewDraftRecord(e.script.now())
	}
	next.Draft.UserDescription = description
	next.Draft.MatchedItems = result
	next.Draft.Total = result.Total()
	next.Reviewing = true

	e.log.Info("description matched",
		slog.Int("canteen_id", *conv.CanteenID),
		slog.Int("items", result.Count()),
		slog.String("total", FormatTotal(next.Draft.Total)),
	)

	return outcome{next: next, messages: []Message{e.script.summary(result)}}
}

func (e *Engine) runPersist(ctx context.Context, conv state.Conversation) outcome {
	if conv.Draft == nil {
		e.errHandler.Handle(ctx, apperrors.NewStateError("confirmation without draft record"))
		return outcome{next: state.Idle(), messages: []Message{e.script.text("errors.state")}}
	}

	record := conv.Draft.Clone()
	if err := e.records.Append(ctx, record); err != nil {
		message, _ := e.errHandler.Handle(ctx, apperrors.NewPersistenceError(err))
		return outcome{next: conv, messages: []Message{{Text: message}}}
	}

	return outcome{
		next:     state.Idle(),
		messages: []Message{e.script.text("conversation.confirmed")},
	}
}

func (e *Engine) load(ctx context.Context) (state.Conversation, error) {
	conv, err := e.storage.Load(ctx)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			return state.Idle(), nil
		}
		return state.Conversation{}, fmt.Errorf("load conversation: %w", err)
	}

	if !conv.Valid() {
		e.log.Warn("discarding invalid conversation", slog.String("step", string(conv.Step)), slog.Bool("active", conv.Active))
		return state.Idle(), nil
	}

	return *conv, nil
}

func (e *Engine) store(ctx context.Context, prev, next state.Conversation) error {
	if prev.Step != next.Step {
		if !state.IsTransitionAllowed(prev.Step, next.Step) {
			e.log.Warn("unexpected transition", slog.String("from", string(prev.Step)), slog.String("to", string(next.Step)))
		}
		state.RecordTransition(prev.Step, next.Step)
		e.log.Debug("conversation transition", slog.String("from", string(prev.Step)), slog.String("to", string(next.Step)))
	}

	if next.Step == state.StepIdle {
		if !prev.Active && prev.Step == state.StepIdle {
			return nil
		}
		if err := e.storage.Clear(ctx); err != nil {
			return fmt.Errorf("clear conversation: %w", err)
		}
		return nil
	}

	next.UpdatedAt = e.script.now().UTC()
	if err := e.storage.Save(ctx, &next); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}

	return nil
}
