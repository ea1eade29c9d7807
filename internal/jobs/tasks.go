// Package jobs schedules the daily lunch prompt.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskTypeScheduleDaily fires at the configured hour and picks the delay of today's prompt.
	TaskTypeScheduleDaily = "prompt:schedule"
	// TaskTypeDailyPrompt asks the owner about lunch.
	TaskTypeDailyPrompt = "prompt:daily"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// Queues are the worker queues with their priorities.
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
}

// Trigger starts the daily conversation.
type Trigger interface {
	TriggerDaily(ctx context.Context) error
}

type ScheduleDailyPayload struct {
	MaxDelay time.Duration `json:"max_delay"`
}

type DailyPromptPayload struct {
	Date string `json:"date"`
}

func NewScheduleDailyTask(maxDelay time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(ScheduleDailyPayload{MaxDelay: maxDelay})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeScheduleDaily, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

func NewDailyPromptTask(date string) (*asynq.Task, error) {
	payload, err := json.Marshal(DailyPromptPayload{Date: date})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeDailyPrompt, payload, asynq.Queue(QueueCritical), asynq.MaxRetry(3)), nil
}

// DailyPromptTaskID deduplicates the prompt of one day across restarts and replicas.
func DailyPromptTaskID(date string) string {
	return "prompt:" + date
}

// CronSpec returns the cron expression firing daily at hour:00.
func CronSpec(hour int) string {
	return fmt.Sprintf("0 %d * * *", hour)
}

// RandomDelay returns a uniformly distributed delay in [0, max).
func RandomDelay(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}
