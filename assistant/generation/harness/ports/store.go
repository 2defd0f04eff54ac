package harnessports

import (
	"context"
	"errors"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/conversation"
)

// ErrNotFound is returned by Load when no history has been persisted yet.
var ErrNotFound = errors.New("conversation not found")

// ConversationStore persists the conversation between turns.
type ConversationStore interface {
	Load(ctx context.Context) (*conversation.Conversation, error)
	Save(ctx context.Context, conv *conversation.Conversation) error
}

// HistoryStore adds the user-facing reset operation.
type HistoryStore interface {
	ConversationStore
	// Clear backs up the current history, removes it and persists fresh.
	Clear(ctx context.Context, fresh *conversation.Conversation) error
}
