package conversation

import (
	"strings"

	"github.com/Proton-105/mensa-bot/internal/domain"
	"github.com/Proton-105/mensa-bot/internal/state"
)

type effect int

const (
	effectNone effect = iota
	effectMatch
	effectPersist
	effectDrop
)

// outcome is the result of a transition. Effects are run by the engine
// before next is stored.
type outcome struct {
	next     state.Conversation
	messages []Message
	toast    string
	effect   effect
}

type transitionKey struct {
	step state.Step
	kind Kind
}

type transition func(s *script, conv state.Conversation, ev Event) outcome

var transitions = map[transitionKey]transition{
	{state.StepIdle, KindStart}:     startWithWelcome,
	{state.StepIdle, KindScheduled}: start,
	{state.StepIdle, KindText}:      start,
	{state.StepIdle, KindChoice}:    expired,
	{state.StepIdle, KindCancel}:    ignore,

	{state.StepAwaitingVisited, KindStart}:     startWithWelcome,
	{state.StepAwaitingVisited, KindScheduled}: drop,
	{state.StepAwaitingVisited, KindText}:      answerVisited,
	{state.StepAwaitingVisited, KindChoice}:    answerVisited,
	{state.StepAwaitingVisited, KindCancel}:    cancel,

	{state.StepAwaitingCanteen, KindStart}:     startWithWelcome,
	{state.StepAwaitingCanteen, KindScheduled}: drop,
	{state.StepAwaitingCanteen, KindText}:      selectCanteen,
	{state.StepAwaitingCanteen, KindChoice}:    selectCanteen,
	{state.StepAwaitingCanteen, KindCancel}:    cancel,

	{state.StepAwaitingDescription, KindStart}:     startWithWelcome,
	{state.StepAwaitingDescription, KindScheduled}: drop,
	{state.StepAwaitingDescription, KindText}:      describe,
	{state.StepAwaitingDescription, KindChoice}:    confirm,
	{state.StepAwaitingDescription, KindCancel}:    cancel,
}

func lookupTransition(step state.Step, kind Kind) (transition, bool) {
	t, ok := transitions[transitionKey{step: step, kind: kind}]
	return t, ok
}

func start(s *script, _ state.Conversation, _ Event) outcome {
	return outcome{
		next:     state.Conversation{Active: true, Step: state.StepAwaitingVisited},
		messages: []Message{s.askVisited()},
	}
}

func startWithWelcome(s *script, conv state.Conversation, ev Event) outcome {
	out := start(s, conv, ev)
	out.messages = append([]Message{s.text("common.welcome")}, out.messages...)
	return out
}

func drop(_ *script, conv state.Conversation, _ Event) outcome {
	return outcome{next: conv, effect: effectDrop}
}

func ignore(_ *script, conv state.Conversation, _ Event) outcome {
	return outcome{next: conv}
}

func expired(s *script, conv state.Conversation, _ Event) outcome {
	return outcome{next: conv, toast: s.t("conversation.button_expired")}
}

// invalid repeats the question's error message. A stale button press is
// also answered with the expired toast.
func invalid(s *script, conv state.Conversation, ev Event, key string) outcome {
	out := outcome{next: conv, messages: []Message{s.text(key)}}
	if ev.Kind == KindChoice {
		out.toast = s.t("conversation.button_expired")
	}
	return out
}

func cancel(s *script, _ state.Conversation, _ Event) outcome {
	return outcome{
		next:     state.Idle(),
		messages: []Message{s.text("conversation.cancelled")},
	}
}

func answerVisited(s *script, conv state.Conversation, ev Event) outcome {
	switch normalizeToken(ev.Text) {
	case TokenNo:
		return outcome{
			next:     state.Idle(),
			messages: []Message{s.text("conversation.see_you")},
		}
	case TokenYes:
		return outcome{
			next: state.Conversation{
				Active: true,
				Step:   state.StepAwaitingCanteen,
				Draft:  domain.NewDraftRecord(s.now()),
			},
			messages: []Message{s.askCanteen()},
		}
	}

	return invalid(s, conv, ev, "conversation.invalid_response")
}

func selectCanteen(s *script, conv state.Conversation, ev Event) outcome {
	canteen, ok := domain.FindCanteenByName(ev.Text)
	if !ok {
		return invalid(s, conv, ev, "conversation.invalid_canteen")
	}

	next := conv.Clone()
	next.Step = state.StepAwaitingDescription
	id := canteen.ID
	next.CanteenID = &id
	if next.Draft == nil {
		next.Draft = domain.NewDraftRecord(s.now())
	}
	next.Draft.CanteenName = canteen.Name

	return outcome{
		next:     next,
		messages: []Message{s.text("conversation.ask_description")},
	}
}

func describe(_ *script, conv state.Conversation, ev Event) outcome {
	if strings.TrimSpace(ev.Text) == "" {
		return outcome{next: conv}
	}
	return outcome{next: conv, effect: effectMatch}
}

func confirm(s *script, conv state.Conversation, ev Event) outcome {
	if !conv.Reviewing {
		return expired(s, conv, ev)
	}

	switch normalizeToken(ev.Text) {
	case TokenCorrect:
		return outcome{next: conv, effect: effectPersist}
	case TokenIncorrect:
		next := conv.Clone()
		next.Reviewing = false
		return outcome{
			next: next,
			messages: []Message{
				s.text("conversation.retry"),
				s.text("conversation.ask_description"),
			},
		}
	}

	return expired(s, conv, ev)
}

func normalizeToken(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
