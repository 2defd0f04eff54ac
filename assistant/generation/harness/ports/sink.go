package harnessports

// Event names exchanged with the caller.
const (
	EventChatMessage  = "chat-message"
	EventStreamError  = "stream-error"
	EventCancelStream = "cancel-stream"
)

// FragmentSink receives turn events. Publish is fire-and-forget: a sink
// that cannot deliver must not block or fail the turn.
type FragmentSink interface {
	Publish(event string, payload string)
}
