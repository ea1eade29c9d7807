package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	rateLimitChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mensa_bot",
		Subsystem: "ratelimit",
		Name:      "checks_total",
		Help:      "Total number of rate limit checks by backend and result.",
	}, []string{"backend", "result"})

	rateLimitRedisErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "mensa_bot",
		Subsystem: "ratelimit",
		Name:      "redis_errors_total",
		Help:      "Total number of Redis errors encountered by the limiter.",
	})
)

func init() {
	prometheus.MustRegister(rateLimitChecksTotal, rateLimitRedisErrorsTotal)
}

// AdaptiveLimiter delegates to a primary (Redis) limiter and falls back to
// a stricter in-memory limiter when the primary fails.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

// NewAdaptiveLimiter creates a limiter that adapts between Redis and in-memory backends.
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Check evaluates the limit using the primary backend, falling back to memory on errors.
// Rejections are returned as ErrLimitExceeded.
func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := a.primary.Check(ctx, key, limit, window)
	if err == nil || errors.Is(err, ErrLimitExceeded) {
		allowed := err == nil && result != nil && result.Allowed
		rateLimitChecksTotal.WithLabelValues("redis", resultLabel(allowed)).Inc()
		if !allowed {
			return result, ErrLimitExceeded
		}
		return result, nil
	}

	rateLimitRedisErrorsTotal.Inc()
	a.log.Warn("redis limiter failed, falling back to in-memory", slog.String("key", key), slog.Any("error", err))

	fallbackLimit := limit / 2
	if fallbackLimit <= 0 {
		fallbackLimit = 1
	}

	fallbackResult, fallbackErr := a.fallback.Check(ctx, key, fallbackLimit, window)
	rateLimitChecksTotal.WithLabelValues("fallback", resultLabel(fallbackErr == nil)).Inc()
	return fallbackResult, fallbackErr
}

// Sweep sweeps both backends when they support it.
func (a *AdaptiveLimiter) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	total := 0
	var errs []error
	for _, limiter := range []Limiter{a.primary, a.fallback} {
		sweeper, ok := limiter.(Sweeper)
		if !ok {
			continue
		}
		n, err := sweeper.Sweep(ctx, maxAge)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

func resultLabel(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "rejected"
}
