package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/mensa-bot/internal/state"
)

func TestTransitionTableIsComplete(t *testing.T) {
	steps := []state.Step{state.StepIdle, state.StepAwaitingVisited, state.StepAwaitingCanteen, state.StepAwaitingDescription}
	kinds := []Kind{KindStart, KindScheduled, KindText, KindChoice, KindCancel}

	for _, step := range steps {
		for _, kind := range kinds {
			_, ok := lookupTransition(step, kind)
			assert.True(t, ok, "missing transition for %s/%s", step, kind)
		}
	}
}

func TestTransitionsAreAllowed(t *testing.T) {
	s := &script{now: func() time.Time { return fixedNow }}
	canteen := 538
	conversations := []state.Conversation{
		state.Idle(),
		{Active: true, Step: state.StepAwaitingVisited},
		{Active: true, Step: state.StepAwaitingCanteen},
		{Active: true, Step: state.StepAwaitingDescription, CanteenID: &canteen},
		{Active: true, Step: state.StepAwaitingDescription, CanteenID: &canteen, Reviewing: true},
	}
	inputs := []string{"", TokenYes, TokenNo, TokenCorrect, TokenIncorrect, "Mensa TU Marchstraße", "something"}

	for key, transition := range transitions {
		for _, conv := range conversations {
			if conv.Step != key.step {
				continue
			}
			for _, input := range inputs {
				out := transition(s, conv, Event{Kind: key.kind, Sender: ownerID, Text: input})
				assert.True(t, state.IsTransitionAllowed(conv.Step, out.next.Step),
					"%s/%s with %q moved to %s", key.step, key.kind, input, out.next.Step)
				if out.effect == effectNone {
					assert.True(t, out.next.Valid(), "%s/%s with %q produced invalid state", key.step, key.kind, input)
				}
			}
		}
	}
}

func TestIdleOnlyAfterNoOrCancel(t *testing.T) {
	s := &script{now: func() time.Time { return fixedNow }}
	visited := state.Conversation{Active: true, Step: state.StepAwaitingVisited}

	assert.Equal(t, state.StepIdle, answerVisited(s, visited, Event{Kind: KindChoice, Text: TokenNo}).next.Step)
	assert.Equal(t, state.StepIdle, cancel(s, visited, Event{Kind: KindCancel}).next.Step)
	assert.Equal(t, state.StepAwaitingVisited, answerVisited(s, visited, Event{Kind: KindText, Text: "nope"}).next.Step)
}
