// Package idempotency makes sure a redelivered Telegram update is processed once.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"
)

var ErrRequestInProgress = errors.New("request with this key is already in progress")

const defaultLockTTL = 5 * time.Minute

type Operation func(ctx context.Context) (interface{}, error)

type Result struct {
	Response  interface{}
	FromCache bool
}

type Manager interface {
	Execute(
		ctx context.Context,
		key string,
		ttl time.Duration,
		fn Operation,
	) (*Result, error)
}

type manager struct {
	store   Store
	log     *slog.Logger
	lockTTL time.Duration
}

func NewManager(store Store, log *slog.Logger) Manager {
	if log == nil {
		log = slog.Default()
	}

	return &manager{
		store:   store,
		log:     log,
		lockTTL: defaultLockTTL,
	}
}

// Execute runs fn unless key already completed, in which case the stored response is returned.
// A failed fn leaves no record behind, so the next delivery runs it again.
func (m *manager) Execute(ctx context.Context, key string, ttl time.Duration, fn Operation) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if fn == nil {
		return nil, errors.New("operation fn cannot be nil")
	}

	token, locked, err := m.store.Lock(ctx, key, m.lockTTL)
	if err != nil {
		return nil, err
	}

	if !locked {
		cached, err := m.completed(ctx, key)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
		return nil, ErrRequestInProgress
	}

	defer func() {
		if err := m.store.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
			m.log.Warn("failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		}
	}()

	// The lock of an earlier, finished run has already been released.
	cached, err := m.completed(ctx, key)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	result, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	responseBytes, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	if err := m.store.Set(ctx, key, &Record{
		Status:      StatusCompleted,
		Response:    responseBytes,
		CompletedAt: time.Now(),
	}, ttl); err != nil {
		return nil, err
	}

	return &Result{
		Response:  result,
		FromCache: false,
	}, nil
}

func (m *manager) completed(ctx context.Context, key string) (*Result, error) {
	record, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Status != StatusCompleted {
		return nil, nil
	}

	var response interface{}
	if len(record.Response) > 0 {
		if err := json.Unmarshal(record.Response, &response); err != nil {
			return nil, err
		}
	}
	return &Result{Response: response, FromCache: true}, nil
}
