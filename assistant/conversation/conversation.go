// Package conversation models the role-tagged message history exchanged with
// the completion endpoint and the invariants it keeps between turns.
package conversation

import (
	"github.com/google/uuid"
)

// Message is a single role-tagged entry in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message for role with the given content.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// Conversation is the ordered message log of one chat session. The JSON shape
// is the persisted history document.
type Conversation struct {
	ID       string    `json:"id"`
	Messages []Message `json:"history"`
}

// New creates a conversation holding only the system prompt.
func New(systemPrompt string) *Conversation {
	return &Conversation{
		ID:       uuid.NewString(),
		Messages: []Message{NewMessage(RoleSystem, systemPrompt)},
	}
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.Messages) }

// Append adds a message at the end of the history.
func (c *Conversation) Append(role Role, content string) {
	c.Messages = append(c.Messages, NewMessage(role, content))
}

// EnsureSystem prepends a system message when the history does not start
// with one. An existing leading system message is left untouched.
func (c *Conversation) EnsureSystem(systemPrompt string) {
	if len(c.Messages) > 0 && c.Messages[0].Role == RoleSystem {
		return
	}
	c.Messages = append([]Message{NewMessage(RoleSystem, systemPrompt)}, c.Messages...)
}

// Truncate bounds the history to max messages by dropping the oldest ones.
// max counts the system message, so max == 1 keeps only the system message.
// The result always starts with a system message: when the kept window does
// not, the conversation's own leading system message (or systemPrompt) takes
// the slot of the oldest kept message. max <= 0 disables the bound.
func (c *Conversation) Truncate(max int, systemPrompt string) {
	if n := len(c.Messages); max > 0 && n > max {
		start := n - max
		var window []Message
		if c.Messages[start].Role == RoleSystem {
			window = append(make([]Message, 0, max), c.Messages[start:]...)
		} else {
			window = make([]Message, 0, max)
			window = append(window, c.leadingSystem(systemPrompt))
			window = append(window, c.Messages[start+1:]...)
		}
		c.Messages = window
	}
	c.EnsureSystem(systemPrompt)
}

// Clone returns a deep copy.
func (c *Conversation) Clone() *Conversation {
	return &Conversation{
		ID:       c.ID,
		Messages: append([]Message(nil), c.Messages...),
	}
}

func (c *Conversation) leadingSystem(systemPrompt string) Message {
	if len(c.Messages) > 0 && c.Messages[0].Role == RoleSystem {
		return c.Messages[0]
	}
	return NewMessage(RoleSystem, systemPrompt)
}
