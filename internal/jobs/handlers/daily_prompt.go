package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/mensa-bot/internal/jobs"
)

// DailyPromptHandler starts the daily conversation.
type DailyPromptHandler struct {
	trigger jobs.Trigger
	log     *slog.Logger
}

func NewDailyPromptHandler(trigger jobs.Trigger, log *slog.Logger) *DailyPromptHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DailyPromptHandler{trigger: trigger, log: log}
}

func (h *DailyPromptHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.DailyPromptPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "daily prompt: failed to decode payload", slog.String("task_type", t.Type()), slog.Any("error", err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	h.log.InfoContext(ctx, "daily prompt: asking about lunch", slog.String("date", payload.Date))
	return h.trigger.TriggerDaily(ctx)
}
