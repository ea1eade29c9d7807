// Package handlers processes the asynq tasks of the daily prompt.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/mensa-bot/internal/jobs"
	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

// ScheduleDailyHandler enqueues today's prompt with a random delay.
type ScheduleDailyHandler struct {
	manager jobs.Manager
	loc     *time.Location
	log     *slog.Logger
	now     func() time.Time
	delay   func(time.Duration) time.Duration
}

func NewScheduleDailyHandler(manager jobs.Manager, loc *time.Location, log *slog.Logger) *ScheduleDailyHandler {
	if log == nil {
		log = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}

	return &ScheduleDailyHandler{
		manager: manager,
		loc:     loc,
		log:     log,
		now:     time.Now,
		delay:   jobs.RandomDelay,
	}
}

func (h *ScheduleDailyHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.ScheduleDailyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "schedule daily: failed to decode payload", slog.String("task_type", t.Type()), slog.Any("error", err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}

	date := h.now().In(h.loc).Format(time.DateOnly)
	task, err := jobs.NewDailyPromptTask(date)
	if err != nil {
		return err
	}

	delay := h.delay(payload.MaxDelay)
	_, err = h.manager.Enqueue(ctx, task, asynq.ProcessIn(delay), asynq.TaskID(jobs.DailyPromptTaskID(date)))
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict):
		h.log.InfoContext(ctx, "schedule daily: prompt already scheduled", slog.String("date", date))
		return nil
	case err != nil:
		return fmt.Errorf("enqueue daily prompt: %w", err)
	}

	metrics.RecordDailyPrompt("scheduled")
	h.log.InfoContext(ctx, "schedule daily: prompt scheduled", slog.String("date", date), slog.Duration("delay", delay))
	return nil
}
