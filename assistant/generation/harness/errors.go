package harness

import (
	"fmt"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/conversation"
)

// TurnErrorKind classifies why a turn failed.
type TurnErrorKind string

const (
	KindLock       TurnErrorKind = "lock"
	KindLoad       TurnErrorKind = "load"
	KindSetup      TurnErrorKind = "setup"
	KindBuild      TurnErrorKind = "build"
	KindConnection TurnErrorKind = "connection"
	KindPersist    TurnErrorKind = "persist"
)

// TurnError is returned by RunTurn. Its message is the display string handed
// to the caller; Partial holds any text accumulated before the failure.
type TurnError struct {
	Kind    TurnErrorKind
	Partial string
	Err     error
}

func (e *TurnError) Error() string {
	switch e.Kind {
	case KindLock:
		return fmt.Sprintf("Failed to acquire prompt lock: %v", e.Err)
	case KindLoad:
		return fmt.Sprintf("Failed to read history: %v", e.Err)
	case KindSetup:
		return fmt.Sprintf("Error: %v", e.Err)
	case KindBuild:
		return fmt.Sprintf("Failed to build request: %v", e.Err)
	case KindConnection:
		return fmt.Sprintf("Failed to start conversation: %v", e.Err)
	case KindPersist:
		return fmt.Sprintf("Failed to write history: %v", e.Err)
	default:
		return fmt.Sprintf("turn failed: %v", e.Err)
	}
}

func (e *TurnError) Unwrap() error { return e.Err }

// MessageBuildError reports a history message that cannot be encoded for its role.
type MessageBuildError struct {
	Index  int
	Role   conversation.Role
	Reason string
}

func (e *MessageBuildError) Error() string {
	return fmt.Sprintf("failed to build chat completion %s message (index %d): %s", e.Role, e.Index, e.Reason)
}

// ConnectionError wraps a failure to open the completion stream.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("completion endpoint unavailable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StreamError wraps a transport or provider error reported mid-stream.
type StreamError struct {
	Err error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream interrupted: %v", e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }
