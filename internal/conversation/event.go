package conversation

// Kind classifies an inbound event.
type Kind string

const (
	// KindStart is an explicit /start command.
	KindStart Kind = "start"
	// KindScheduled is the daily prompt fired by the scheduler.
	KindScheduled Kind = "scheduled"
	// KindText is a free-text message.
	KindText Kind = "text"
	// KindChoice is a button press carrying a token.
	KindChoice Kind = "choice"
	// KindCancel is an explicit /cancel command.
	KindCancel Kind = "cancel"
)

// Button tokens.
const (
	TokenYes       = "yes"
	TokenNo        = "no"
	TokenCorrect   = "correct"
	TokenIncorrect = "incorrect"
)

// Event is a normalized input for the engine. For KindChoice, Text holds the token.
type Event struct {
	Kind   Kind
	Sender int64
	Text   string
}

// Format is the text markup of an outbound message.
type Format int

const (
	FormatPlain Format = iota
	FormatHTML
)

// Layout arranges the choices of a message.
type Layout int

const (
	// LayoutRow puts all choices in one row.
	LayoutRow Layout = iota
	// LayoutColumn puts every choice in its own row.
	LayoutColumn
)

// Choice is an inline button.
type Choice struct {
	Label string
	Token string
}

// Message is an outbound message.
type Message struct {
	Text    string
	Format  Format
	Choices []Choice
	Layout  Layout
}

// Response is everything the engine emits for one event.
type Response struct {
	Messages []Message
	// Toast is a short notice shown as the answer of a button press.
	Toast string
	// Ignored is set when the event was dropped without any effect.
	Ignored bool
}
