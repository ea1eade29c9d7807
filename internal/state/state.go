package state

import (
	"time"

	"github.com/Proton-105/mensa-bot/internal/domain"
)

// Step represents a stage of the lunch conversation.
type Step string

const (
	// StepIdle indicates that no conversation is in progress.
	StepIdle Step = "idle"
	// StepAwaitingVisited indicates that the bot asked whether the user ate at a canteen today.
	StepAwaitingVisited Step = "awaiting_visited"
	// StepAwaitingCanteen indicates that the user is choosing a canteen.
	StepAwaitingCanteen Step = "awaiting_canteen"
	// StepAwaitingDescription indicates that the bot waits for a free-text lunch description
	// or, once a match was shown, for its confirmation.
	StepAwaitingDescription Step = "awaiting_description"
)

// Conversation is the single conversation owned by the engine.
type Conversation struct {
	Active    bool               `json:"active"`
	Step      Step               `json:"step"`
	CanteenID *int               `json:"canteen_id,omitempty"`
	Draft     *domain.MealRecord `json:"draft,omitempty"`
	Reviewing bool               `json:"reviewing"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Idle returns a conversation in the idle step.
func Idle() Conversation {
	return Conversation{Step: StepIdle}
}

// Clone returns a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	clone := c
	if c.CanteenID != nil {
		id := *c.CanteenID
		clone.CanteenID = &id
	}
	clone.Draft = c.Draft.Clone()
	return clone
}

// Valid reports whether the conversation satisfies its structural invariants.
func (c Conversation) Valid() bool {
	if (c.Step == StepIdle) == c.Active {
		return false
	}

	if c.CanteenID != nil && c.Step != StepAwaitingDescription {
		return false
	}

	if c.Reviewing && c.Step != StepAwaitingDescription {
		return false
	}

	return true
}
