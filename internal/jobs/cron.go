package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Proton-105/mensa-bot/pkg/metrics"
)

// CronScheduler fires the daily prompt in-process when Redis is not configured.
// A pending prompt is lost on restart.
type CronScheduler struct {
	cron     *cron.Cron
	trigger  Trigger
	hour     int
	maxDelay time.Duration
	delay    func(time.Duration) time.Duration
	log      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler firing at hour:00 in loc plus a random delay below maxDelay.
func NewCronScheduler(trigger Trigger, loc *time.Location, hour int, maxDelay time.Duration, log *slog.Logger) *CronScheduler {
	if log == nil {
		log = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		trigger:  trigger,
		hour:     hour,
		maxDelay: maxDelay,
		delay:    RandomDelay,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *CronScheduler) RegisterTasks() error {
	spec := CronSpec(s.hour)
	if _, err := s.cron.AddFunc(spec, s.fire); err != nil {
		return err
	}

	s.log.Info("cron scheduler: registered daily prompt", slog.String("cron", spec))
	return nil
}

func (s *CronScheduler) Start() error {
	s.log.Info("cron scheduler: starting")
	s.cron.Start()
	return nil
}

// Shutdown stops the cron, drops a prompt that is still waiting for its delay and
// waits for one that is being sent.
func (s *CronScheduler) Shutdown() {
	s.log.Info("cron scheduler: shutting down")
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
}

func (s *CronScheduler) fire() {
	delay := s.delay(s.maxDelay)
	metrics.RecordDailyPrompt("scheduled")
	s.log.Info("cron scheduler: daily prompt scheduled", slog.Duration("delay", delay))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		if err := s.trigger.TriggerDaily(s.ctx); err != nil {
			s.log.Error("cron scheduler: daily prompt failed", slog.Any("error", err))
		}
	}()
}
