package state

import (
	"context"
	"sync"
)

// MemoryStorage keeps the conversation in process memory.
type MemoryStorage struct {
	mu           sync.Mutex
	conversation *Conversation
}

// NewMemoryStorage creates an empty in-memory Storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Load returns a copy of the stored conversation.
func (s *MemoryStorage) Load(ctx context.Context) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conversation == nil {
		return nil, ErrStateNotFound
	}

	clone := s.conversation.Clone()
	return &clone, nil
}

// Save stores a copy of the conversation.
func (s *MemoryStorage) Save(ctx context.Context, conversation *Conversation) error {
	if conversation == nil {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := conversation.Clone()
	s.conversation = &clone
	return nil
}

// Clear drops the stored conversation.
func (s *MemoryStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversation = nil
	return nil
}
