package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisLimiter implements Limiter using Redis sorted sets and a sliding window.
type RedisLimiter struct {
	client *redis.Client
	log    *slog.Logger
}

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Sweeper = (*RedisLimiter)(nil)
)

// NewRedisLimiter creates a Redis-backed Limiter implementation.
func NewRedisLimiter(client *redis.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &RedisLimiter{
		client: client,
		log:    log,
	}
}

// Check evaluates the rate limit for a given key using a sliding window algorithm.
// A rejected request is reported through Result.Allowed, not as an error.
func (l *RedisLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	if l.client == nil {
		return nil, errors.New("redis client is not configured for rate limiting")
	}

	if limit <= 0 {
		return &Result{Allowed: false, Remaining: 0, ResetAt: time.Now().Add(window)}, nil
	}

	now := time.Now()
	windowStart := now.Add(-window)
	redisKey := keyPrefix + key

	cutoff := float64(windowStart.UnixNano()) / float64(time.Millisecond)
	score := float64(now.UnixNano()) / float64(time.Millisecond)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("(%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{
		Score:  score,
		Member: uuid.NewString(),
	})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window*2)

	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Error("rate limiter pipeline failed", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	count, err := countCmd.Result()
	if err != nil {
		l.log.Error("rate limiter failed to read count", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}

	allowed := count <= int64(limit)
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   allowed,
		Remaining: remaining,
		ResetAt:   now.Add(window),
	}, nil
}

// Sweep trims entries older than maxAge and deletes keys left empty.
func (l *RedisLimiter) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	if l.client == nil || maxAge <= 0 {
		return 0, nil
	}

	const scanCount = 100

	cutoff := float64(time.Now().Add(-maxAge).UnixNano()) / float64(time.Millisecond)
	var cursor uint64
	cleaned := 0

	for {
		keys, nextCursor, err := l.client.Scan(ctx, cursor, keyPrefix+"*", scanCount).Result()
		if err != nil {
			return cleaned, fmt.Errorf("scan rate limit keys: %w", err)
		}

		for _, key := range keys {
			pipe := l.client.TxPipeline()
			pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%f", cutoff))
			cardCmd := pipe.ZCard(ctx, key)
			if _, err := pipe.Exec(ctx); err != nil {
				l.log.Warn("cleanup pipeline failed", slog.String("key", key), slog.Any("error", err))
				continue
			}

			if cardCmd.Val() > 0 {
				continue
			}

			if err := l.client.Del(ctx, key).Err(); err != nil {
				l.log.Warn("failed to delete empty rate limit key", slog.String("key", key), slog.Any("error", err))
				continue
			}
			cleaned++
		}

		if nextCursor == 0 {
			break
		}
		cursor = nextCursor
	}

	return cleaned, nil
}
