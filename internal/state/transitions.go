package state

// validTransitions lists the moves of the lunch conversation. Active steps
// may restart at StepAwaitingVisited. Staying on a step and returning to
// idle are always permitted.
var validTransitions = map[Step][]Step{
	StepIdle: {
		StepAwaitingVisited,
	},
	StepAwaitingVisited: {
		StepAwaitingCanteen,
	},
	StepAwaitingCanteen: {
		StepAwaitingDescription,
		StepAwaitingVisited,
	},
	StepAwaitingDescription: {
		StepAwaitingVisited,
	},
}

// TransitionRecorder observes every applied transition.
type TransitionRecorder func(from, to Step)

var transitionRecorders []TransitionRecorder

// RegisterTransitionRecorder adds a recorder invoked by RecordTransition.
// It must be called during startup, before any conversation runs.
func RegisterTransitionRecorder(recorder TransitionRecorder) {
	if recorder == nil {
		return
	}
	transitionRecorders = append(transitionRecorders, recorder)
}

// RecordTransition notifies the registered recorders about a step change.
func RecordTransition(from, to Step) {
	for _, recorder := range transitionRecorders {
		recorder(from, to)
	}
}

// IsTransitionAllowed reports whether moving from one step to another is valid.
func IsTransitionAllowed(from, to Step) bool {
	if to == StepIdle || from == to {
		return true
	}

	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}

	for _, step := range allowed {
		if step == to {
			return true
		}
	}

	return false
}
