package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/mensa-bot/internal/state"
)

func TestConversationCollector_Collect(t *testing.T) {
	storage := state.NewMemoryStorage()
	collector := NewConversationCollector(storage)
	ctx := context.Background()

	require.NoError(t, collector.collect(ctx))
	assert.Equal(t, 0.0, testutil.ToFloat64(conversationActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(conversationStep.WithLabelValues(string(state.StepIdle))))

	require.NoError(t, storage.Save(ctx, &state.Conversation{Active: true, Step: state.StepAwaitingCanteen}))
	require.NoError(t, collector.collect(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(conversationActive))
	assert.Equal(t, 0.0, testutil.ToFloat64(conversationStep.WithLabelValues(string(state.StepIdle))))
	assert.Equal(t, 1.0, testutil.ToFloat64(conversationStep.WithLabelValues(string(state.StepAwaitingCanteen))))
}

func TestRecordStateTransitionViaRecorder(t *testing.T) {
	counter := stateTransitionsTotal.WithLabelValues(string(state.StepIdle), string(state.StepAwaitingVisited))
	before := testutil.ToFloat64(counter)

	state.RecordTransition(state.StepIdle, state.StepAwaitingVisited)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordErrorDefaults(t *testing.T) {
	counter := errorsTotal.WithLabelValues("unknown", "unknown")
	before := testutil.ToFloat64(counter)

	RecordError("", "")

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
