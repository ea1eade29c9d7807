package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/mensa-bot/internal/state"
)

const namespace = "mensa_bot"

var (
	botUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Total number of Telegram updates handled labeled by kind and status",
		},
		[]string{"kind", "status"},
	)
	updateDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "update_duration_seconds",
			Help:      "Duration of update handling in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of conversation step transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	menuFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_fetches_total",
			Help:      "Total number of menu fetches labeled by status",
		},
		[]string{"status"},
	)
	menuFetchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "menu_fetch_duration_seconds",
			Help:      "Duration of menu fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)
	matcherResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matcher_results_total",
			Help:      "Total number of matcher invocations labeled by outcome",
		},
		[]string{"outcome"},
	)
	recordsAppendedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_appended_total",
			Help:      "Total number of meal record appends labeled by driver and status",
		},
		[]string{"driver", "status"},
	)
	dailyPromptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_prompts_total",
			Help:      "Total number of scheduled prompts labeled by outcome",
		},
		[]string{"outcome"},
	)
	conversationActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conversation_active",
			Help:      "Whether a lunch conversation is currently in progress",
		},
	)
	conversationStep = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "conversation_step",
			Help:      "Set to 1 for the current conversation step",
		},
		[]string{"step"},
	)
)

var trackedSteps = []state.Step{
	state.StepIdle,
	state.StepAwaitingVisited,
	state.StepAwaitingCanteen,
	state.StepAwaitingDescription,
}

func init() {
	state.RegisterTransitionRecorder(func(from, to state.Step) {
		RecordStateTransition(string(from), string(to))
	})
}

// RecordUpdate increments update counters and records duration.
func RecordUpdate(kind, status string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botUpdatesTotal.WithLabelValues(kind, status).Inc()
	updateDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordStateTransition tracks conversation step transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// RecordMenuFetch tracks a menu fetch and its latency.
func RecordMenuFetch(status string, duration time.Duration) {
	menuFetchesTotal.WithLabelValues(status).Inc()
	menuFetchDurationSeconds.Observe(duration.Seconds())
}

// RecordMatcherResult counts matcher outcomes such as matched, empty or failed.
func RecordMatcherResult(outcome string) {
	matcherResultsTotal.WithLabelValues(outcome).Inc()
}

// RecordAppend counts record store appends.
func RecordAppend(driver, status string) {
	recordsAppendedTotal.WithLabelValues(driver, status).Inc()
}

// RecordDailyPrompt counts scheduled prompts by outcome.
func RecordDailyPrompt(outcome string) {
	dailyPromptsTotal.WithLabelValues(outcome).Inc()
}

// SetConversation updates the conversation gauges.
func SetConversation(active bool, step string) {
	if active {
		conversationActive.Set(1)
	} else {
		conversationActive.Set(0)
	}

	for _, tracked := range trackedSteps {
		value := 0.0
		if string(tracked) == step {
			value = 1
		}
		conversationStep.WithLabelValues(string(tracked)).Set(value)
	}
}

// ConversationCollector periodically reads the stored conversation and emits gauge metrics.
type ConversationCollector struct {
	storage  state.Storage
	interval time.Duration
}

// NewConversationCollector builds a metrics collector bound to the conversation storage.
func NewConversationCollector(storage state.Storage) *ConversationCollector {
	return &ConversationCollector{storage: storage, interval: 10 * time.Second}
}

// Run polls the storage every interval, updating the gauges until ctx is cancelled.
func (c *ConversationCollector) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.interval):
		}
	}
}

func (c *ConversationCollector) collect(ctx context.Context) error {
	conversation, err := c.storage.Load(ctx)
	if err != nil {
		if errors.Is(err, state.ErrStateNotFound) {
			SetConversation(false, string(state.StepIdle))
			return nil
		}
		return err
	}

	SetConversation(conversation.Active, string(conversation.Step))
	return nil
}
