package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Scheduler fires the daily schedule task.
type Scheduler interface {
	RegisterTasks() error
	// Start returns once the scheduler runs in the background. It leaves
	// signal handling to the caller, which stops it with Shutdown.
	Start() error
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	hour           int
	maxDelay       time.Duration
	log            *slog.Logger
}

// NewScheduler builds a Redis-backed scheduler firing at hour:00 in loc.
func NewScheduler(redisOpt asynq.RedisConnOpt, loc *time.Location, hour int, maxDelay time.Duration, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: loc}),
		hour:           hour,
		maxDelay:       maxDelay,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	task, err := NewScheduleDailyTask(s.maxDelay)
	if err != nil {
		return err
	}

	spec := CronSpec(s.hour)
	if _, err := s.asynqScheduler.Register(spec, task); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered daily prompt", slog.String("cron", spec))
	return nil
}

func (s *scheduler) Start() error {
	s.log.InfoContext(context.Background(), "scheduler: starting")
	return s.asynqScheduler.Start()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")
	s.asynqScheduler.Shutdown()
}
