package state

import (
	"context"
	"log/slog"
	"time"
)

// Expirer discards conversations that have been idle for longer than ttl.
type Expirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration) (bool, error)
}

// Cleaner periodically expires abandoned conversations.
type Cleaner struct {
	expirer  Expirer
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner constructs a Cleaner instance.
func NewCleaner(expirer Expirer, log *slog.Logger, ttl, interval time.Duration) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		expirer:  expirer,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run starts the cleanup loop until the context is cancelled.
func (c *Cleaner) Run(ctx context.Context) {
	if c == nil || c.expirer == nil || c.ttl <= 0 || c.interval <= 0 {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("state cleaner stopped", slog.Any("reason", ctx.Err()))
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

func (c *Cleaner) cleanup(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	expired, err := c.expirer.ExpireStale(ctx, c.ttl)
	if err != nil {
		c.log.Error("state cleaner failed to expire conversation", slog.Any("error", err))
		return
	}

	if expired {
		c.log.Info("stale conversation cleared", slog.Duration("ttl", c.ttl))
	}
}
