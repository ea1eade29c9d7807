// Package state manages the conversation state of the lunch bot.
package state

import (
	"context"
	"errors"
)

// ErrStateNotFound indicates that no conversation has been stored yet.
var ErrStateNotFound = errors.New("conversation state not found")

// Storage defines the persistence contract for the conversation state.
type Storage interface {
	// Load returns the stored conversation or ErrStateNotFound.
	Load(ctx context.Context) (*Conversation, error)
	// Save replaces the stored conversation.
	Save(ctx context.Context, conversation *Conversation) error
	// Clear removes the stored conversation.
	Clear(ctx context.Context) error
}
