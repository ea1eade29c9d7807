package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// Record is the stored outcome of a processed update.
type Record struct {
	Status      string
	Response    []byte
	CompletedAt time.Time
}

// Store persists records and the lock that guards their creation.
type Store interface {
	// Lock tries to take the lock of key and returns the token that owns it.
	Lock(ctx context.Context, key string, lockTTL time.Duration) (token string, acquired bool, err error)
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, record *Record, ttl time.Duration) error
	// ReleaseLock drops the lock only while token still owns it.
	ReleaseLock(ctx context.Context, key, token string) error
}

// releaseScript deletes the lock when it still holds the caller's token. A lock
// that expired and was taken by another delivery is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore keeps records in Redis hashes next to a SETNX lock.
type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedisStore(client *redis.Client, log *slog.Logger) Store {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStore{
		client: client,
		log:    log,
	}
}

func (s *RedisStore) Lock(ctx context.Context, key string, lockTTL time.Duration) (string, bool, error) {
	token := uuid.NewString()
	acquired, err := s.client.SetNX(ctx, lockKey(key), token, lockTTL).Result()
	if err != nil {
		s.log.ErrorContext(ctx, "failed to acquire idempotency lock", slog.String("key", key), slog.Any("error", err))
		return "", false, err
	}
	if !acquired {
		return "", false, nil
	}

	return token, true, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	fields, err := s.client.HGetAll(ctx, recordKey(key)).Result()
	if err != nil {
		s.log.ErrorContext(ctx, "failed to fetch idempotency record", slog.String("key", key), slog.Any("error", err))
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	record := &Record{Status: fields["status"]}
	if response := fields["response"]; response != "" {
		record.Response = []byte(response)
	}
	if raw := fields["completed_at"]; raw != "" {
		unix, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode completed_at of %s: %w", key, err)
		}
		record.CompletedAt = time.Unix(unix, 0)
	}

	return record, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, record *Record, ttl time.Duration) error {
	if record == nil {
		return nil
	}
	if !json.Valid(record.Response) {
		return fmt.Errorf("response of %s is not valid JSON", key)
	}

	completedAt := record.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now()
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, recordKey(key),
		"status", record.Status,
		"response", string(record.Response),
		"completed_at", completedAt.Unix(),
	)
	pipe.Expire(ctx, recordKey(key), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		s.log.ErrorContext(ctx, "failed to store idempotency record", slog.String("key", key), slog.Any("error", err))
		return err
	}

	return nil
}

func (s *RedisStore) ReleaseLock(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{lockKey(key)}, token).Err(); err != nil {
		s.log.ErrorContext(ctx, "failed to release idempotency lock", slog.String("key", key), slog.Any("error", err))
		return err
	}

	return nil
}

func recordKey(key string) string {
	return "idempotency:" + key
}

func lockKey(key string) string {
	return "idempotency:" + key + ":lock"
}
