package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/mensa-bot/pkg/config"
)

func TestMemoryLimiter_SlidingWindow(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	now := time.Date(2024, 10, 14, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}

	result, err := limiter.Check(ctx, "user:1", 2, time.Minute)
	assert.ErrorIs(t, err, ErrLimitExceeded)
	assert.False(t, result.Allowed)
	assert.Equal(t, 60, result.RetryAfter(now))

	other, err := limiter.Check(ctx, "user:2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	now = now.Add(61 * time.Second)
	result, err = limiter.Check(ctx, "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Remaining)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	limiter := NewMemoryLimiter(testLogger())
	now := time.Date(2024, 10, 14, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	_, _ = limiter.Check(ctx, "user:1", 5, time.Minute)
	now = now.Add(30 * time.Minute)
	_, _ = limiter.Check(ctx, "user:2", 5, time.Minute)

	removed, err := limiter.Sweep(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Len(t, limiter.buckets, 1)
	assert.Contains(t, limiter.buckets, "user:2")
}

func TestResultRetryAfter(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 1, (*Result)(nil).RetryAfter(now))
	assert.Equal(t, 1, (&Result{ResetAt: now.Add(-time.Second)}).RetryAfter(now))
	assert.Equal(t, 30, (&Result{ResetAt: now.Add(30 * time.Second)}).RetryAfter(now))
}

type stubLimiter struct {
	result *Result
	err    error
	calls  int
	limits []int
}

func (s *stubLimiter) Check(_ context.Context, _ string, limit int, _ time.Duration) (*Result, error) {
	s.calls++
	s.limits = append(s.limits, limit)
	return s.result, s.err
}

func TestAdaptiveLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("primary allows", func(t *testing.T) {
		primary := &stubLimiter{result: &Result{Allowed: true}}
		fallback := &stubLimiter{}
		_, err := NewAdaptiveLimiter(primary, fallback, testLogger()).Check(ctx, "k", 10, time.Minute)
		assert.NoError(t, err)
		assert.Zero(t, fallback.calls)
	})

	t.Run("primary rejects", func(t *testing.T) {
		primary := &stubLimiter{result: &Result{Allowed: false}}
		_, err := NewAdaptiveLimiter(primary, &stubLimiter{}, testLogger()).Check(ctx, "k", 10, time.Minute)
		assert.ErrorIs(t, err, ErrLimitExceeded)
	})

	t.Run("falls back with half the limit", func(t *testing.T) {
		primary := &stubLimiter{err: errors.New("connection refused")}
		fallback := &stubLimiter{result: &Result{Allowed: true}}
		result, err := NewAdaptiveLimiter(primary, fallback, testLogger()).Check(ctx, "k", 10, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, []int{5}, fallback.limits)
	})

	t.Run("sweeps memory fallback", func(t *testing.T) {
		memory := NewMemoryLimiter(testLogger())
		_, _ = memory.Check(ctx, "k", 1, time.Minute)
		memory.now = func() time.Time { return time.Now().Add(time.Hour) }

		removed, err := NewAdaptiveLimiter(&stubLimiter{}, memory, testLogger()).Sweep(ctx, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
	})
}

func TestRules(t *testing.T) {
	rules := NewRules(config.RateLimitConfig{Enabled: true, Limit: 20, Window: time.Minute}, "/cancel")
	rule, err := rules.PerUser()
	require.NoError(t, err)
	assert.Equal(t, Rule{Limit: 20, Window: time.Minute}, rule)
	assert.Equal(t, "user:42", rules.Key(42))

	assert.True(t, rules.Exempt("/cancel"))
	assert.True(t, rules.Exempt("/CANCEL@mensa_bot now"))
	assert.False(t, rules.Exempt("/start"))
	assert.False(t, rules.Exempt("cancel"))
	assert.False(t, rules.Exempt(""))

	_, err = NewRules(config.RateLimitConfig{Limit: 20}).PerUser()
	assert.Error(t, err)
	_, err = NewRules(config.RateLimitConfig{Window: time.Minute}).PerUser()
	assert.Error(t, err)

	assert.False(t, NewRules(config.RateLimitConfig{}).Enabled())
	assert.False(t, (*Rules)(nil).Enabled())
}

type countingSweeper struct {
	calls chan time.Duration
}

func (s *countingSweeper) Sweep(_ context.Context, maxAge time.Duration) (int, error) {
	select {
	case s.calls <- maxAge:
	default:
	}
	return 1, nil
}

func TestCleanerRunsUntilCancelled(t *testing.T) {
	sweeper := &countingSweeper{calls: make(chan time.Duration, 10)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		NewCleaner(sweeper, testLogger(), 5*time.Millisecond, time.Hour).Run(ctx)
		close(done)
	}()

	select {
	case maxAge := <-sweeper.calls:
		assert.Equal(t, time.Hour, maxAge)
	case <-time.After(time.Second):
		t.Fatal("cleaner did not sweep")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop")
	}
}
