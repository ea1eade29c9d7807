package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const conversationKeyPattern = "conversation:state:%d"

// KeyValue is the subset of the Redis client wrapper used by RedisStorage.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStorage persists the conversation in Redis so it survives restarts.
type RedisStorage struct {
	client KeyValue
	key    string
	ttl    time.Duration
	log    *slog.Logger
}

// NewRedisStorage initializes a Redis-backed Storage for the given owner.
// A zero ttl keeps the conversation until it is cleared.
func NewRedisStorage(client KeyValue, ownerID int64, ttl time.Duration, log *slog.Logger) *RedisStorage {
	if log == nil {
		log = slog.Default()
	}

	return &RedisStorage{
		client: client,
		key:    fmt.Sprintf(conversationKeyPattern, ownerID),
		ttl:    ttl,
		log:    log,
	}
}

// Load returns the stored conversation or ErrStateNotFound when absent.
func (s *RedisStorage) Load(ctx context.Context) (*Conversation, error) {
	data, err := s.client.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrStateNotFound
		}

		s.log.Warn("failed to get conversation from redis", "key", s.key, "error", err)
		return nil, err
	}

	var conversation Conversation
	if err := json.Unmarshal([]byte(data), &conversation); err != nil {
		s.log.Warn("failed to decode conversation", "key", s.key, "error", err)
		return nil, err
	}

	return &conversation, nil
}

// Save stores the conversation with the configured TTL.
func (s *RedisStorage) Save(ctx context.Context, conversation *Conversation) error {
	if conversation == nil {
		return s.Clear(ctx)
	}

	data, err := json.Marshal(conversation)
	if err != nil {
		s.log.Warn("failed to encode conversation", "key", s.key, "error", err)
		return err
	}

	if err := s.client.Set(ctx, s.key, data, s.ttl); err != nil {
		s.log.Warn("failed to save conversation in redis", "key", s.key, "error", err)
		return err
	}

	return nil
}

// Clear removes the stored conversation.
func (s *RedisStorage) Clear(ctx context.Context) error {
	if err := s.client.Delete(ctx, s.key); err != nil {
		s.log.Warn("failed to clear conversation", "key", s.key, "error", err)
		return err
	}

	return nil
}
